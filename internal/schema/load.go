package schema

import (
	"embed"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
)

//go:embed catalog/*.cue
var builtinFS embed.FS

var (
	builtinOnce sync.Once
	builtinCat  *Catalog
	builtinErr  error
)

// Builtin returns the embedded 5010 catalog (837P 005010X222A1 and 837I
// 005010X223A2). It is compiled on first use and shared afterwards.
func Builtin() (*Catalog, error) {
	builtinOnce.Do(func() {
		builtinCat, builtinErr = compileFS(builtinFS, "catalog")
	})
	return builtinCat, builtinErr
}

// MustBuiltin is like Builtin but panics on error.
func MustBuiltin() *Catalog {
	cat, err := Builtin()
	if err != nil {
		panic(err)
	}
	return cat
}

func compileFS(fsys fs.FS, dir string) (*Catalog, error) {
	entries, err := fs.ReadDir(fsys, dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".cue" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	ctx := cuecontext.New()
	var value cue.Value
	for i, name := range names {
		data, err := fs.ReadFile(fsys, dir+"/"+name)
		if err != nil {
			return nil, err
		}
		v := ctx.CompileBytes(data, cue.Filename(name))
		if err := v.Err(); err != nil {
			return nil, formatCUEError(err)
		}
		if i == 0 {
			value = v
		} else {
			value = value.Unify(v)
		}
	}
	if len(names) == 0 {
		return nil, fmt.Errorf("no CUE files in %s", dir)
	}
	if err := value.Validate(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(value)
}

// LoadDir loads the CUE package in dir and compiles it into a catalog.
func LoadDir(dir string) (*Catalog, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("catalog directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("not a directory: %s", dir)
	}

	files, err := FindCUEFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("scanning %s: %w", dir, err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no CUE files found in %s", dir)
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, fmt.Errorf("no CUE instances loaded from %s", dir)
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, fmt.Errorf("loading CUE files: %w", inst.Err)
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, formatCUEError(err)
	}
	if err := value.Validate(); err != nil {
		return nil, formatCUEError(err)
	}
	return Compile(value)
}

// FindCUEFiles walks dir and returns every .cue file path.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// SchemaSource returns the CUE definitions that constrain a catalog, for
// callers authoring their own catalog directory.
func SchemaSource() ([]byte, error) {
	return builtinFS.ReadFile("catalog/schema.cue")
}
