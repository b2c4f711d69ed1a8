package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/BearerPipelineTest/meta-where/internal/compiler"
	"github.com/BearerPipelineTest/meta-where/internal/schema"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading specs from a directory.
type LoadResult struct {
	Bundle    *compiler.Bundle
	CUEValue  cue.Value // The raw CUE value for additional processing
	FileCount int       // Number of CUE files found
}

// LoadError represents an error that occurred during spec loading.
type LoadError struct {
	Code    string
	Field   string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, msg)
	}
	return fmt.Sprintf("%s: %s", e.Code, msg)
}

// Line returns the error's source line, or 0.
func (e *LoadError) Line() int {
	if e.Pos.IsValid() {
		return e.Pos.Line()
	}
	return 0
}

// LoadSpecs loads the CUE package in dir and compiles its table and
// query blocks block by block. A nil result means nothing could be
// compiled at all; otherwise the result holds every block that compiled
// and errs the ones that did not.
func LoadSpecs(dir string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("specs directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing specs directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	instances := load.Instances([]string{"."}, &load.Config{Dir: dir})
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{convertCompileError(err, "cue", ErrCodeBuildFailed)}
	}

	result := &LoadResult{
		Bundle:    &compiler.Bundle{Registry: schema.NewRegistry()},
		CUEValue:  value,
		FileCount: len(cueFiles),
	}

	var errs []error
	add := func(err error) bool {
		errs = append(errs, err)
		return mode == LoadModeFailFast
	}

	stop := eachBlock(value, "table", add, func(label string, v cue.Value) error {
		t, err := compiler.CompileTable(v)
		if err != nil {
			return convertCompileError(err, "table."+label, ErrCodeInvalidTable)
		}
		if err := result.Bundle.Registry.Add(t); err != nil {
			return &LoadError{Code: ErrCodeInvalidTable, Field: "table." + label, Message: err.Error(), Pos: v.Pos()}
		}
		return nil
	})
	if stop {
		return result, errs
	}

	eachBlock(value, "query", add, func(label string, v cue.Value) error {
		q, err := compiler.CompileQuery(v)
		if err != nil {
			return convertCompileError(err, "query."+label, ErrCodeInvalidQuery)
		}
		result.Bundle.Queries = append(result.Bundle.Queries, compiler.NamedQuery{Name: label, Query: q, Pos: v.Pos()})
		return nil
	})

	if len(result.Bundle.Registry.Tables()) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no tables found in specs"})
	}

	return result, errs
}

// eachBlock compiles every field of the struct at path. It reports true
// once add asks to stop.
func eachBlock(v cue.Value, path string, add func(error) bool, fn func(string, cue.Value) error) bool {
	sv := v.LookupPath(cue.ParsePath(path))
	if !sv.Exists() {
		return false
	}
	iter, err := sv.Fields()
	if err != nil {
		return add(convertCompileError(err, path, ErrCodeGeneric))
	}
	for iter.Next() {
		label := iter.Selector().Unquoted()
		if err := fn(label, iter.Value()); err != nil {
			if add(err) {
				return true
			}
		}
	}
	return false
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with
// position info. Errors without a field fall back to code.
func convertCompileError(err error, field, code string) *LoadError {
	var compileErr *compiler.CompileError
	if errors.As(err, &compileErr) {
		c := MapFieldToErrorCode(compileErr.Field)
		if c == ErrCodeGeneric {
			c = code
		}
		return &LoadError{
			Code:    c,
			Field:   compileErr.Field,
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{Code: code, Field: field, Message: err.Error()}
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	ErrCodeInvalidTable = "E010" // table block does not compile
	ErrCodeInvalidQuery = "E011" // query block does not compile
	ErrCodeUnknownQuery = "E012" // query name not declared
)

// MapFieldToErrorCode maps a compiler error field to an error code.
func MapFieldToErrorCode(field string) string {
	head, _, _ := strings.Cut(field, ".")
	switch head {
	case "table":
		return ErrCodeInvalidTable
	case "query":
		return ErrCodeInvalidQuery
	case "cue":
		return ErrCodeBuildFailed
	default:
		return ErrCodeGeneric
	}
}
