package catalog

type EntryResponse struct {
	Value string `json:"value"`
}

type EntriesResponse struct {
	Items []EntryResponse `json:"items"`
}

type StatusResponse struct {
	Value    string   `json:"value"`
	Terminal bool     `json:"terminal"`
	Actions  []string `json:"actions"`
}

type StatusesResponse struct {
	ExpenseSheet   []StatusResponse `json:"expense_sheet"`
	AdvanceRequest []StatusResponse `json:"advance_request"`
}

func NewEntriesResponse(entries []Entry) EntriesResponse {
	items := make([]EntryResponse, len(entries))
	for i, e := range entries {
		items[i] = EntryResponse{Value: e.Value}
	}
	return EntriesResponse{Items: items}
}

func newStatusResponses(entries []StatusEntry) []StatusResponse {
	out := make([]StatusResponse, len(entries))
	for i, e := range entries {
		out[i] = StatusResponse{Value: e.Value, Terminal: e.Terminal, Actions: e.Actions}
	}
	return out
}

func NewStatusesResponse(sheet, adv []StatusEntry) StatusesResponse {
	return StatusesResponse{
		ExpenseSheet:   newStatusResponses(sheet),
		AdvanceRequest: newStatusResponses(adv),
	}
}
