package batch

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/reclutahub/recluta-cli/internal/model"
	"github.com/reclutahub/recluta-cli/pkg/processor"
)

// Limits bounds what a single batch accepts.
type Limits struct {
	MaxFiles    int
	MaxFileSize int64
	AllowedExts []string
}

// DefaultLimits returns the standard admission limits: 20 files per batch,
// 5 MB per file, PDF and Word documents only.
func DefaultLimits() Limits {
	return Limits{
		MaxFiles:    20,
		MaxFileSize: 5 * 1024 * 1024,
		AllowedExts: []string{".pdf", ".doc", ".docx"},
	}
}

// AddResult reports the outcome of one admission call.
type AddResult struct {
	Added  int      `json:"added"`
	Errors []string `json:"errors,omitempty"`
}

// Validator admits files into a batch, enforcing the batch cap, per-file
// size and extension limits, and duplicate rejection.
type Validator struct {
	limits Limits
}

// NewValidator creates a validator. Zero-valued limits fall back to the
// defaults field by field.
func NewValidator(limits Limits) *Validator {
	def := DefaultLimits()
	if limits.MaxFiles <= 0 {
		limits.MaxFiles = def.MaxFiles
	}
	if limits.MaxFileSize <= 0 {
		limits.MaxFileSize = def.MaxFileSize
	}
	if len(limits.AllowedExts) == 0 {
		limits.AllowedExts = def.AllowedExts
	}
	return &Validator{limits: limits}
}

// Admit validates files against the registry and returns the items to
// enqueue plus a per-file error report. Exceeding the batch cap rejects the
// whole call; other violations reject only the offending file. A file
// sharing both name and size with a queued item (or an earlier file in the
// same call) is a duplicate.
func (v *Validator) Admit(reg *Registry, files []processor.FileUpload) ([]model.CVItem, AddResult) {
	var res AddResult

	if reg.Len()+len(files) > v.limits.MaxFiles {
		res.Errors = append(res.Errors,
			fmt.Sprintf("Máximo %d archivos por lote", v.limits.MaxFiles))
		return nil, res
	}

	type key struct {
		name string
		size int64
	}
	seen := make(map[key]bool)
	for _, item := range reg.Items() {
		seen[key{item.FileName, item.FileSize}] = true
	}

	var admitted []model.CVItem
	for _, f := range files {
		size := int64(len(f.Data))

		if size > v.limits.MaxFileSize {
			res.Errors = append(res.Errors,
				fmt.Sprintf("%s: excede el tamaño máximo de %d MB", f.Name, v.limits.MaxFileSize/(1024*1024)))
			continue
		}
		if !v.allowedExt(f.Name) {
			res.Errors = append(res.Errors,
				fmt.Sprintf("%s: tipo de archivo no permitido (solo %s)", f.Name, strings.Join(v.limits.AllowedExts, ", ")))
			continue
		}
		k := key{f.Name, size}
		if seen[k] {
			res.Errors = append(res.Errors,
				fmt.Sprintf("%s: archivo duplicado", f.Name))
			continue
		}
		seen[k] = true

		admitted = append(admitted, model.CVItem{
			ID:       "cv-" + uuid.NewString(),
			File:     f,
			FileName: f.Name,
			FileSize: size,
			Status:   model.StatusPending,
			Progress: 0,
		})
		res.Added++
	}

	return admitted, res
}

func (v *Validator) allowedExt(name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, allowed := range v.limits.AllowedExts {
		if ext == allowed {
			return true
		}
	}
	return false
}
