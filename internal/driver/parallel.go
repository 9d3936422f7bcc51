package driver

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"bindgen/internal/decl"
	"bindgen/internal/diag"
	"bindgen/internal/project"
	"bindgen/internal/source"
	"bindgen/internal/trace"
)

// LoadOptions tunes LoadFiles.
type LoadOptions struct {
	Jobs           int
	MaxDiagnostics int
	BaseDir        string
	Sink           ProgressSink
}

// LoadResult is the declaration stream of a set of files in file order.
type LoadResult struct {
	FileSet *source.FileSet
	Decls   []*decl.Decl
	Bag     *diag.Bag
	// Digest covers every file path and content, in order.
	Digest project.Digest
}

// fileResult содержит результат декодирования одного файла
type fileResult struct {
	decls []*decl.Decl
	bag   *diag.Bag
}

// ListDeclFiles возвращает отсортированный список всех файлов деклараций в директории
func ListDeclFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && FormatOf(path) != FormatUnknown {
			files = append(files, path)
		}
		return nil
	})

	if err != nil {
		return nil, err
	}

	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// LoadFiles reads and decodes declaration files in parallel. Item errors land
// in the bag; the returned error is reserved for cancellation.
func LoadFiles(ctx context.Context, paths []string, opts LoadOptions) (*LoadResult, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "load", 0).WithExtra("files", fmt.Sprint(len(paths)))
	defer span.End("")

	fileSet := source.NewFileSetWithBase(opts.BaseDir)
	bag := diag.NewBag(opts.MaxDiagnostics)

	// FileSet не потокобезопасен: читаем файлы последовательно, декодируем параллельно
	ids := make([]source.FileID, len(paths))
	loaded := make([]bool, len(paths))
	for i, path := range paths {
		emit(opts.Sink, Event{File: path, Stage: StageLoad, Status: StatusQueued})
		id, err := fileSet.Load(path)
		if err != nil {
			bag.Add(diag.NewError(diag.InpReadFailed, source.Span{File: source.NoFile},
				fmt.Sprintf("failed to read %s: %v", path, err)))
			emit(opts.Sink, Event{File: path, Stage: StageLoad, Status: StatusError, Err: err})
			continue
		}
		ids[i], loaded[i] = id, true
	}

	jobs := opts.Jobs
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	// Результаты (индексы уникальны для каждой горутины, мьютекс не нужен)
	results := make([]fileResult, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, min(jobs, len(paths))))
	for i, path := range paths {
		if !loaded[i] {
			continue
		}
		i, path := i, path
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			start := time.Now()
			emit(opts.Sink, Event{File: path, Stage: StageLoad, Status: StatusWorking})
			results[i] = decodeDecls(fileSet, ids[i], opts.MaxDiagnostics)
			status := StatusDone
			if results[i].bag.HasErrors() {
				status = StatusError
			}
			emit(opts.Sink, Event{File: path, Stage: StageLoad, Status: status, Elapsed: time.Since(start)})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	res := &LoadResult{FileSet: fileSet, Bag: bag}
	var parts []project.Digest
	for i := range paths {
		if !loaded[i] {
			continue
		}
		f := fileSet.Get(ids[i])
		parts = append(parts, project.Combine(project.Sum([]byte(f.Path)), f.Hash))
	}
	res.Decls = mergeResults(results, bag)
	if len(parts) > 0 {
		res.Digest = project.Combine(parts[0], parts[1:]...)
	}
	trace.Point(tracer, trace.ScopeDriver, "loaded", fmt.Sprintf("%d declarations", len(res.Decls)))
	return res, nil
}

// LoadSource decodes one in-memory declaration file. The name selects the
// format by extension.
func LoadSource(name string, content []byte) *LoadResult {
	fileSet := source.NewFileSet()
	id := fileSet.AddVirtual(name, content)
	bag := diag.NewBag(0)
	f := fileSet.Get(id)
	return &LoadResult{
		FileSet: fileSet,
		Decls:   mergeResults([]fileResult{decodeDecls(fileSet, id, 0)}, bag),
		Bag:     bag,
		Digest:  project.Combine(project.Sum([]byte(f.Path)), f.Hash),
	}
}

func decodeDecls(fileSet *source.FileSet, id source.FileID, maxDiagnostics int) fileResult {
	bag := diag.NewBag(maxDiagnostics)
	reporter := diag.BagReporter{Bag: bag}
	f := fileSet.Get(id)

	dec, err := decodeFile(fileSet, id)
	if err != nil {
		diag.ReportErr(reporter, err, diag.InpMalformedFile, spanOf(f))
		return fileResult{bag: bag}
	}
	module := ident(dec.file.Module)
	if module == "" {
		module = trimExt(filepath.Base(f.Path))
	}
	decls := make([]*decl.Decl, 0, len(dec.file.Items))
	for i := range dec.file.Items {
		d, err := buildDecl(module, &dec.file.Items[i], dec.locs[i], i)
		if err != nil {
			diag.ReportErr(reporter, err, diag.InpMalformedItem, dec.locs[i].span)
			continue
		}
		decls = append(decls, d)
	}
	return fileResult{decls: decls, bag: bag}
}

// mergeResults restores file order and drops redeclared names. Host
// languages share one namespace for all kinds, so any repeated name clashes.
func mergeResults(results []fileResult, bag *diag.Bag) []*decl.Decl {
	var out []*decl.Decl
	seen := make(map[string]*decl.Decl)
	for _, r := range results {
		bag.Merge(r.bag)
		for _, d := range r.decls {
			if prev, dup := seen[d.Name]; dup {
				bag.Add(diag.NewError(diag.InpDuplicateDecl, d.Span,
					fmt.Sprintf("%s: %s %q is already declared", d.Name, d.Kind, d.Name)).
					WithNote(prev.Span, "previous declaration is here"))
				continue
			}
			seen[d.Name] = d
			out = append(out, d)
		}
	}
	return out
}

func trimExt(name string) string {
	return name[:len(name)-len(filepath.Ext(name))]
}
