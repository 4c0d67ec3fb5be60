package model

type BulkStatusRequest struct {
	IDs    []string `json:"ids" validate:"required,min=1,dive,required"`
	Status Status   `json:"status" validate:"required,oneof=pending confirmed cancelled completed no-show"`
}

type BulkIDsRequest struct {
	IDs []string `json:"ids" validate:"required,min=1,dive,required"`
}

type ItemFailure struct {
	ID      string `json:"id"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// PartialResult reports a bulk action per id. An id appears in exactly one of
// Succeeded or Failed.
type PartialResult struct {
	Succeeded []string      `json:"succeeded"`
	Failed    []ItemFailure `json:"failed"`
}

func (r *PartialResult) FailedIDs() []string {
	ids := make([]string, 0, len(r.Failed))
	for _, f := range r.Failed {
		ids = append(ids, f.ID)
	}
	return ids
}
