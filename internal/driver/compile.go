package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bindgen/internal/backend"
	"bindgen/internal/decl"
	"bindgen/internal/diag"
	"bindgen/internal/output"
	"bindgen/internal/source"
	"bindgen/internal/trace"
)

// Compile feeds decls to b in source order and finalizes the output set.
// Each failing declaration adds one diagnostic to bag and contributes no
// fragment; the remaining declarations are still emitted. The error return
// is reserved for cancellation.
func Compile(ctx context.Context, b backend.Backend, decls []*decl.Decl, bag *diag.Bag) (map[string]string, error) {
	tracer := trace.FromContext(ctx)
	out := output.NewSet(b.Documents())

	emitSpan := trace.Begin(tracer, trace.ScopePass, "emit", 0).
		WithExtra("decls", fmt.Sprint(len(decls)))
	failed := 0
	for _, d := range decls {
		if err := ctx.Err(); err != nil {
			emitSpan.End("cancelled")
			return nil, err
		}
		ds := trace.Begin(tracer, trace.ScopeDecl, d.Kind.String()+":"+d.Name, emitSpan.ID())
		if err := backend.Dispatch(b, d, out); err != nil {
			failed++
			report(bag, d, err)
			ds.End("error")
			continue
		}
		ds.End("")
	}
	emitSpan.End(fmt.Sprintf("%d failed", failed))

	finSpan := trace.Begin(tracer, trace.ScopePass, "finalize", 0)
	if err := b.Finalize(out); err != nil {
		trace.Failf(tracer, "finalize", "%v", err)
		bag.Add(diag.FromError(err, diag.EmtInfo, source.Span{File: source.NoFile}))
	}
	finSpan.End("")
	return out.Result(), nil
}

// report records the failure of d, pointing at the offending field when the
// error names one.
func report(bag *diag.Bag, d *decl.Decl, err error) {
	primary := d.Span
	var de *diag.Error
	if errors.As(err, &de) && de.Item != "" {
		primary = d.FieldSpan(de.Item)
	}
	tagged := diag.Tag(err, diag.TypUnsupported, d.Name, primary)
	bag.Add(diag.FromError(tagged, diag.TypUnsupported, primary))
}

// CompileSource compiles one in-memory declaration file with the named
// backend. It is the entry point for tools and tests that hold no files.
func CompileSource(ctx context.Context, lang string, cfg backend.Config, name string, content []byte) (*Result, error) {
	loaded := LoadSource(name, content)
	b, err := backend.New(lang, cfg)
	if err != nil {
		return nil, err
	}
	outputs, err := Compile(ctx, b, loaded.Decls, loaded.Bag)
	if err != nil {
		return nil, err
	}
	return &Result{
		Outputs: outputs,
		Bag:     loaded.Bag,
		FileSet: loaded.FileSet,
		Decls:   len(loaded.Decls),
	}, nil
}

// Request describes one generation run.
type Request struct {
	Lang           string
	Config         backend.Config
	Files          []string
	BaseDir        string
	Jobs           int
	MaxDiagnostics int
	Sink           ProgressSink
	// Cache is consulted before compiling; nil disables caching.
	Cache *DiskCache
}

// Result is the outcome of a generation run.
type Result struct {
	Outputs map[string]string
	Bag     *diag.Bag
	FileSet *source.FileSet
	Decls   int
	Cached  bool
}

// Generate loads the request's files, compiles them and consults the output
// cache. Outputs are returned even when the bag holds errors; callers decide
// whether to write them.
func Generate(ctx context.Context, req Request) (*Result, error) {
	tracer := trace.FromContext(ctx)
	lang := req.Lang
	if lang == "" {
		lang = "csharp"
	}
	b, err := backend.New(lang, req.Config)
	if err != nil {
		return nil, err
	}

	loaded, err := LoadFiles(ctx, req.Files, LoadOptions{
		Jobs:           req.Jobs,
		MaxDiagnostics: req.MaxDiagnostics,
		BaseDir:        req.BaseDir,
		Sink:           req.Sink,
	})
	if err != nil {
		return nil, err
	}
	res := &Result{Bag: loaded.Bag, FileSet: loaded.FileSet, Decls: len(loaded.Decls)}

	key, keyErr := CacheKey(loaded.Digest, lang, req.Config.WithDefaults())
	if keyErr != nil {
		res.Bag.Add(diag.New(diag.SevWarning, diag.OutCacheFailed, source.Span{File: source.NoFile},
			fmt.Sprintf("cache key: %v", keyErr)))
	}
	useCache := req.Cache != nil && keyErr == nil && !loaded.Bag.HasErrors()
	if useCache {
		var payload CachedOutputs
		hit, err := req.Cache.Get(key, &payload)
		switch {
		case err != nil:
			res.Bag.Add(diag.New(diag.SevWarning, diag.OutCacheFailed, source.Span{File: source.NoFile},
				fmt.Sprintf("reading output cache: %v", err)))
		case hit && payload.Schema == diskCacheSchemaVersion && payload.Key == key:
			trace.Point(tracer, trace.ScopeDriver, "cache", "hit "+key.String())
			emit(req.Sink, Event{Stage: StageCompile, Status: StatusCached})
			res.Outputs = payload.Outputs
			res.Cached = true
			return res, nil
		}
	}

	start := time.Now()
	emit(req.Sink, Event{Stage: StageCompile, Status: StatusWorking})
	outputs, err := Compile(ctx, b, loaded.Decls, res.Bag)
	if err != nil {
		return nil, err
	}
	res.Outputs = outputs
	status := StatusDone
	if res.Bag.HasErrors() {
		status = StatusError
	}
	emit(req.Sink, Event{Stage: StageCompile, Status: status, Elapsed: time.Since(start)})

	if useCache && !res.Bag.HasErrors() {
		payload := &CachedOutputs{
			Schema:  diskCacheSchemaVersion,
			Key:     key,
			Lang:    lang,
			Outputs: outputs,
			Created: time.Now().UTC(),
		}
		if err := req.Cache.Put(key, payload); err != nil {
			res.Bag.Add(diag.New(diag.SevWarning, diag.OutCacheFailed, source.Span{File: source.NoFile},
				fmt.Sprintf("writing output cache: %v", err)))
		}
	}
	return res, nil
}
