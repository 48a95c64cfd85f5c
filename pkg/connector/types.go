package connector

// Item is a single record flowing out of an invocation. PairedItem points at
// the positional index of the input record that produced it, so the host can
// reconstruct provenance after partial failures.
type Item struct {
	JSON       map[string]interface{} `json:"json"`
	PairedItem int                    `json:"paired_item"`
}

// Target describes the MongoDB deployment an invocation runs against. The host
// resolves credentials before calling; this module only assembles the URI.
type Target struct {
	URI      string  `json:"uri,omitempty"`
	Host     string  `json:"host,omitempty"`
	Port     *string `json:"port,omitempty"`
	Username *string `json:"username,omitempty"`
	Password *string `json:"password,omitempty"`
	Database string  `json:"database"`
}

// Params carries the per-operation parameters of one invocation. Which fields
// matter depends on the operation; unused fields are ignored.
type Params struct {
	Query          string `json:"query"`            // Extended-JSON filter or aggregation pipeline
	Fields         string `json:"fields"`           // comma-separated field selector
	UpdateKey      string `json:"update_key"`       // filter key for update/replace operations
	Upsert         bool   `json:"upsert"`           // insert-if-absent on update/replace
	UseDotNotation bool   `json:"use_dot_notation"` // rewrite "a.b" keys into nested documents
	DateFields     string `json:"date_fields"`      // comma-separated fields coerced to date-time
	IDFields       string `json:"id_fields"`        // comma-separated fields coerced to ObjectID
	Skip           int64  `json:"skip"`             // find only
	Limit          int64  `json:"limit"`            // find only
	Sort           string `json:"sort"`             // find only, Extended-JSON sort document
}

// NormalizeOptions selects how raw input records are shaped into documents.
type NormalizeOptions struct {
	Fields         []string
	UseDotNotation bool
	DateFields     []string
	IDFields       []string
}
