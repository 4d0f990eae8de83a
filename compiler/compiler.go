// Copyright © 2018 The ELPS authors

// Package compiler translates forms produced by the reader into ir trees.
//
// Symbols resolve through the alias chain of the enclosing lexical scopes
// before falling back to namespace lookup.  Special forms are recognized by
// their leading symbol before any macro expansion is attempted.
package compiler

import (
	"context"
	"fmt"
	"strings"

	"github.com/luthersystems/cljgo/ir"
	"github.com/luthersystems/cljgo/lang"
	"github.com/pkg/errors"
	"github.com/tliron/commonlog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the name of the tracer used when no tracer is configured.
const TracerName = "github.com/luthersystems/cljgo/compiler"

var logger = commonlog.GetLogger("cljgo.compiler")

// Compiler compiles top-level forms.  A Compiler tracks the current
// namespace across calls to Compile and is not safe for concurrent use.
type Compiler struct {
	registry *lang.Registry
	ns       *lang.Namespace
	thread   *lang.Thread
	tracer   trace.Tracer
	ids      int

	// lexical state, saved and restored around every scope
	aliases *lang.PersistentHashMap
	locals  *lang.PersistentHashSet
	recur   *lang.PersistentList
	names   *lang.PersistentList
}

// Option configures a Compiler.
type Option func(c *Compiler)

// WithRegistry makes the compiler resolve namespaces in r instead of
// lang.DefaultRegistry.
func WithRegistry(r *lang.Registry) Option {
	return func(c *Compiler) {
		c.registry = r
	}
}

// WithNamespace sets the initial namespace.  The default is "user".
func WithNamespace(name string) Option {
	return func(c *Compiler) {
		c.ns = c.registry.FindOrCreate(lang.NewSymbol("", name))
	}
}

// WithThread sets the thread used to dereference vars and run macros during
// compilation.
func WithThread(t *lang.Thread) Option {
	return func(c *Compiler) {
		c.thread = t
	}
}

// WithTracer makes the compiler record spans with tr instead of a tracer from
// the global provider.
func WithTracer(tr trace.Tracer) Option {
	return func(c *Compiler) {
		c.tracer = tr
	}
}

// New returns a Compiler configured by opts.
func New(opts ...Option) *Compiler {
	c := &Compiler{
		registry: lang.DefaultRegistry,
		aliases:  lang.EmptyHashMap,
		locals:   lang.EmptySet,
		recur:    lang.EmptyList,
		names:    lang.EmptyList,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.ns == nil {
		c.ns = c.registry.FindOrCreate(lang.NewSymbol("", "user"))
	}
	if c.thread == nil {
		c.thread = lang.NewThread()
	}
	return c
}

// Registry returns the namespace registry used for resolution.
func (c *Compiler) Registry() *lang.Registry {
	return c.registry
}

// Namespace returns the current namespace.
func (c *Compiler) Namespace() *lang.Namespace {
	return c.ns
}

// SetNamespace changes the current namespace.
func (c *Compiler) SetNamespace(ns *lang.Namespace) {
	c.ns = ns
}

// Thread returns the thread used during compilation.
func (c *Compiler) Thread() *lang.Thread {
	return c.thread
}

type scope struct {
	aliases *lang.PersistentHashMap
	locals  *lang.PersistentHashSet
	recur   *lang.PersistentList
	names   *lang.PersistentList
}

func (c *Compiler) save() scope {
	return scope{aliases: c.aliases, locals: c.locals, recur: c.recur, names: c.names}
}

func (c *Compiler) restore(s scope) {
	c.aliases = s.aliases
	c.locals = s.locals
	c.recur = s.recur
	c.names = s.names
}

// Compile compiles a top-level form.  Each call starts from an empty
// lexical scope; a failed compilation leaves no trace in the compiler other
// than namespace changes made by forms compiled before the failure.
func (c *Compiler) Compile(ctx context.Context, form interface{}) (node ir.Node, err error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tracer := c.tracer
	if tracer == nil {
		tracer = otel.GetTracerProvider().Tracer(TracerName)
	}
	_, span := tracer.Start(ctx, "compile", trace.WithAttributes(formAttributes(c.ns, form)...))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	defer c.restore(c.save())
	c.restore(scope{
		aliases: lang.EmptyHashMap,
		locals:  lang.EmptySet,
		recur:   lang.EmptyList,
		names:   lang.EmptyList,
	})
	return c.compile(form)
}

func formAttributes(ns *lang.Namespace, form interface{}) []attribute.KeyValue {
	attrs := []attribute.KeyValue{
		attribute.String("cljgo.form.kind", formKind(form)),
		semconv.CodeNamespace(ns.Name().Name),
	}
	m, ok := form.(lang.IMeta)
	if !ok || m.Meta() == nil {
		return attrs
	}
	meta := m.Meta()
	if file, ok := meta.ValAt(lang.KeywordFile).(string); ok {
		attrs = append(attrs, semconv.CodeFilepath(file))
	}
	if line, ok := lang.ToInt64(meta.ValAt(lang.KeywordLine)); ok {
		attrs = append(attrs, semconv.CodeLineNumber(int(line)))
	}
	if col, ok := lang.ToInt64(meta.ValAt(lang.KeywordColumn)); ok {
		attrs = append(attrs, semconv.CodeColumn(int(col)))
	}
	return attrs
}

func formKind(form interface{}) string {
	switch form := form.(type) {
	case *lang.Symbol:
		return "symbol"
	case *lang.PersistentList:
		if form.Count() == 0 {
			return "constant"
		}
		return "list"
	case lang.IPersistentVector:
		return "vector"
	case *lang.PersistentHashSet:
		return "set"
	case lang.IPersistentMap:
		return "map"
	case lang.Seq:
		return "list"
	default:
		return "constant"
	}
}

func (c *Compiler) compile(form interface{}) (ir.Node, error) {
	switch form := form.(type) {
	case *lang.Symbol:
		return c.compileSymbol(form)
	case *lang.PersistentList:
		if form.Count() == 0 {
			return &ir.Const{Value: form}, nil
		}
		return c.compileForm(form)
	case lang.IPersistentVector:
		return c.compileHostCall(ir.HostVector, lang.SeqSlice(form.Seq()))
	case *lang.PersistentHashSet:
		return c.compileHostCall(ir.HostHashSet, lang.SeqSlice(form.Seq()))
	case lang.IPersistentMap:
		var keyvals []interface{}
		for s := form.Seq(); s != nil; s = s.Next() {
			e := s.First().(*lang.MapEntry)
			keyvals = append(keyvals, e.Key(), e.Val())
		}
		return c.compileHostCall(ir.HostHashMap, keyvals)
	case lang.Seq:
		return c.compileForm(form)
	default:
		return &ir.Const{Value: form}, nil
	}
}

func (c *Compiler) compileAll(forms []interface{}) ([]ir.Node, error) {
	nodes := make([]ir.Node, len(forms))
	for i, form := range forms {
		n, err := c.compile(form)
		if err != nil {
			return nil, err
		}
		nodes[i] = n
	}
	return nodes, nil
}

// compileImplicitDo compiles the body of a scope.  A body of one form is
// compiled as that form and an empty body is nil.
func (c *Compiler) compileImplicitDo(forms []interface{}) (ir.Node, error) {
	switch len(forms) {
	case 0:
		return ir.Nil, nil
	case 1:
		return c.compile(forms[0])
	}
	body, err := c.compileAll(forms)
	if err != nil {
		return nil, err
	}
	return &ir.Do{Body: body}, nil
}

func (c *Compiler) compileHostCall(name string, forms []interface{}) (ir.Node, error) {
	args, err := c.compileAll(forms)
	if err != nil {
		return nil, err
	}
	return &ir.Call{Fn: &ir.Host{Name: name}, Args: args}, nil
}

func (c *Compiler) compileSymbol(sym *lang.Symbol) (ir.Node, error) {
	if alias := c.alias(sym); alias != nil {
		return alias.compile(c, sym)
	}
	val, err := c.resolve(sym)
	if err != nil {
		return nil, err
	}
	if v, ok := val.(*lang.Var); ok {
		if v.IsMacro() {
			return nil, lang.CompilerErrorf(sym, "can't take value of a macro")
		}
		return &ir.VarRef{Var: v}, nil
	}
	return &ir.Const{Value: val}, nil
}

// alias returns the innermost alias for an unqualified symbol.
func (c *Compiler) alias(sym *lang.Symbol) Alias {
	if sym.IsQualified() {
		return nil
	}
	alias, _ := c.aliases.ValAt(sym.Name).(Alias)
	return alias
}

func (c *Compiler) pushAlias(name string, alias Alias) {
	c.aliases = c.aliases.Assoc(name, alias)
}

// bindLocal aliases sym to a fresh local and returns the local's storage
// name.  The symbol's own name is used unless it would shadow an alias or
// reuse storage of another local in scope.
func (c *Compiler) bindLocal(sym *lang.Symbol) string {
	local := sym.Name
	if c.aliases.ContainsKey(local) || c.locals.Contains(local) {
		c.ids++
		local = fmt.Sprintf("%s_%d", sym.Name, c.ids)
		logger.Debugf("renamed local %s to %s", sym.Name, local)
	}
	c.locals = c.locals.Conj(local)
	c.pushAlias(sym.Name, &RenamedLocal{Local: local})
	return local
}

// resolve finds the value a symbol names in the current namespace, in a
// namespace named by its qualifier, or in the core namespace.
func (c *Compiler) resolve(sym *lang.Symbol) (interface{}, error) {
	if sym.IsQualified() {
		ns := c.lookupNamespace(sym.NS)
		if ns == nil {
			return nil, lang.CompilerErrorf(sym, "no such namespace: %s", sym.NS)
		}
		val := ns.Lookup(lang.NewSymbol("", sym.Name))
		if val == nil {
			return nil, lang.CompilerErrorf(sym, "no such var")
		}
		if v, ok := val.(*lang.Var); ok && ns != c.ns && !v.IsPublic() {
			return nil, lang.CompilerErrorf(sym, "var %v is not public", v)
		}
		return val, nil
	}
	if val := c.ns.Lookup(sym); val != nil {
		return val, nil
	}
	if core := c.registry.Core(); core != c.ns {
		if v, ok := core.Lookup(sym).(*lang.Var); ok && v.IsPublic() {
			return v, nil
		}
	}
	return nil, lang.CompilerErrorf(sym, "unable to resolve symbol")
}

func (c *Compiler) lookupNamespace(name string) *lang.Namespace {
	sym := lang.NewSymbol("", name)
	if ns := c.ns.LookupAlias(sym); ns != nil {
		return ns
	}
	return c.registry.Find(sym)
}

func (c *Compiler) compileForm(form lang.Seq) (ir.Node, error) {
	items := lang.SeqSlice(form)
	if head, ok := items[0].(*lang.Symbol); ok && !head.IsQualified() {
		if special, ok := specialForms[head.Name]; ok {
			return special(c, form, items)
		}
	}
	expanded, ok, err := c.Macroexpand1(form)
	if err != nil {
		return nil, err
	}
	if ok {
		return c.compile(expanded)
	}
	if head, ok := items[0].(*lang.Symbol); ok && !head.IsQualified() && c.alias(head) == nil {
		switch {
		case strings.HasPrefix(head.Name, ".-") && len(head.Name) > 2:
			return c.compilePropertyAccess(form, head.Name[2:], items)
		case strings.HasPrefix(head.Name, ".") && len(head.Name) > 1 && head.Name != "..":
			return c.compileMethodAccess(form, head.Name[1:], items)
		}
	}
	fn, err := c.compile(items[0])
	if err != nil {
		return nil, err
	}
	args, err := c.compileAll(items[1:])
	if err != nil {
		return nil, err
	}
	return &ir.Call{Fn: fn, Args: args}, nil
}

func (c *Compiler) compileMethodAccess(form lang.Seq, name string, items []interface{}) (ir.Node, error) {
	if len(items) < 2 {
		return nil, lang.CompilerErrorf(form, "method access must have at least one argument")
	}
	target, err := c.compile(items[1])
	if err != nil {
		return nil, err
	}
	args, err := c.compileAll(items[2:])
	if err != nil {
		return nil, err
	}
	return &ir.Method{Target: target, Name: name, Args: args}, nil
}

func (c *Compiler) compilePropertyAccess(form lang.Seq, name string, items []interface{}) (ir.Node, error) {
	if len(items) != 2 {
		return nil, lang.CompilerErrorf(form, "property access must have only one argument")
	}
	target, err := c.compile(items[1])
	if err != nil {
		return nil, err
	}
	return &ir.Property{Target: target, Name: name}, nil
}

// Macroexpand1 expands form once when its operator names a macro var.  The
// macro function is called with the whole form, a map of the locals in
// scope, and the unevaluated arguments.  The second result reports whether
// an expansion took place.
func (c *Compiler) Macroexpand1(form interface{}) (interface{}, bool, error) {
	seq, ok := form.(lang.Seq)
	if !ok {
		return form, false, nil
	}
	if l, ok := form.(*lang.PersistentList); ok && l.Count() == 0 {
		return form, false, nil
	}
	head, ok := seq.First().(*lang.Symbol)
	if !ok || c.alias(head) != nil {
		return form, false, nil
	}
	if _, special := specialForms[head.Name]; special && !head.IsQualified() {
		return form, false, nil
	}
	val, err := c.resolve(head)
	if err != nil {
		return form, false, nil
	}
	v, ok := val.(*lang.Var)
	if !ok || !v.IsMacro() {
		return form, false, nil
	}
	macro, ok := v.Deref(c.thread).(lang.IFn)
	if !ok {
		return nil, false, lang.CompilerErrorf(form, "macro %v is not a function", v)
	}
	args := append([]interface{}{form, c.localEnv()}, lang.SeqSlice(seq.Next())...)
	expanded, err := macro.Invoke(c.thread, args...)
	if err != nil {
		return nil, false, errors.Wrapf(err, "macroexpand %v", v)
	}
	logger.Debugf("macroexpanded %v", v)
	return carryMeta(form, expanded), true, nil
}

// localEnv maps the symbol of every local in scope to nil.
func (c *Compiler) localEnv() *lang.PersistentHashMap {
	env := lang.EmptyHashMap
	for s := c.aliases.Keys(); s != nil; s = s.Next() {
		env = env.Assoc(lang.NewSymbol("", s.First().(string)), nil)
	}
	return env
}

// carryMeta gives an expansion the source location of the form it replaced
// when the expansion has no metadata of its own.
func carryMeta(form, expanded interface{}) interface{} {
	m, ok := form.(lang.IMeta)
	if !ok || m.Meta() == nil {
		return expanded
	}
	switch x := expanded.(type) {
	case *lang.PersistentList:
		if x.Count() > 0 && x.Meta() == nil {
			return x.WithMeta(m.Meta())
		}
	case *lang.Cons:
		if x.Meta() == nil {
			return x.WithMeta(m.Meta())
		}
	}
	return expanded
}

// autoName names an anonymous function after the definitions enclosing it.
func (c *Compiler) autoName() string {
	c.ids++
	if c.names.Count() == 0 {
		return fmt.Sprintf("fn_%d", c.ids)
	}
	parts := make([]string, 0, c.names.Count()+1)
	for s := c.names.Seq(); s != nil; s = s.Next() {
		parts = append(parts, s.First().(string))
	}
	for i, j := 0, len(parts)-1; i < j; i, j = i+1, j-1 {
		parts[i], parts[j] = parts[j], parts[i]
	}
	parts = append(parts, fmt.Sprintf("fn_%d", c.ids))
	return strings.Join(parts, "_")
}
