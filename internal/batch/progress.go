package batch

import (
	"github.com/reclutahub/recluta-cli/internal/model"
	"github.com/reclutahub/recluta-cli/pkg/processor"
)

// StageResult carries the payload of a successful pipeline run, delivered
// with the terminal completed update.
type StageResult struct {
	Contact  model.ContactData
	RawText  string
	Analysis *processor.MatchAnalysis
}

// Update is one progress notification from the pipeline for a single item.
type Update struct {
	Status   model.ItemStatus
	Progress int
	Data     *StageResult
	Err      string
}

// ProgressFunc receives pipeline progress updates keyed by item id.
type ProgressFunc func(itemID string, u Update)

// RegistryReporter returns a ProgressFunc that applies updates to the
// registry as id-keyed patches. Contact fields already present on the item
// (prefetched or user-edited) are kept unless the pipeline extracted a
// non-empty replacement, so contact data stays monotonic.
func RegistryReporter(reg *Registry) ProgressFunc {
	return func(itemID string, u Update) {
		reg.Update(itemID, func(item *model.CVItem) {
			item.Status = u.Status
			item.Progress = u.Progress
			item.Error = u.Err
			if u.Data != nil {
				item.RawText = u.Data.RawText
				item.Analysis = u.Data.Analysis
				merged := u.Data.Contact
				if item.Contact != nil {
					merged = item.Contact.Merge(u.Data.Contact)
				}
				item.Contact = &merged
			}
		})
	}
}
