package record

import "encoding/json"

// Library is one extraction record: everything the upstream pipeline
// produced for a collection of papers. It is the sole input to
// consolidation; ids inside it are opaque strings owned by the pipeline.
type Library struct {
	Papers       []Paper       `json:"papers"`
	Claims       []Claim       `json:"claims"`
	Observations []Observation `json:"observations"`
	Methods      []Method      `json:"methods"`
	Links        []Link        `json:"links"`
}

// Paper holds the bibliographic metadata for one source paper.
type Paper struct {
	ID       string   `json:"id"`
	Title    string   `json:"title"`
	Filename string   `json:"filename"`
	Abstract string   `json:"abstract,omitempty"`
	Authors  []string `json:"authors,omitempty"`
	Year     int      `json:"year,omitempty"`
	Journal  string   `json:"journal,omitempty"`
	DOI      string   `json:"doi,omitempty"`
}

// SourceElement points at the span of the source paper an entity was
// extracted from.
type SourceElement struct {
	SourceElementID string `json:"source_element_id"`
}

// Claim is an extracted assertion made by a paper.
type Claim struct {
	ID      string       `json:"id"`
	PaperID string       `json:"paper_id"`
	Content ClaimContent `json:"content"`
}

// ClaimContent is the claim's content payload. Fields the engine reads are
// promoted; everything else the pipeline emitted is kept in Extra so no
// information is lost across consolidation.
type ClaimContent struct {
	RephrasedClaim string          `json:"rephrased_claim"`
	Reasoning      string          `json:"reasoning,omitempty"`
	SourceElements []SourceElement `json:"source_elements,omitempty"`
	Extra          map[string]any  `json:"-"`
}

// Observation is an extracted empirical result or real-world case.
type Observation struct {
	ID      string             `json:"id"`
	PaperID string             `json:"paper_id"`
	Content ObservationContent `json:"content"`
}

// ObservationContent is the observation's content payload.
type ObservationContent struct {
	ObservationSummary string          `json:"observation_summary"`
	ObservationType    string          `json:"observation_type,omitempty"`
	MethodReference    string          `json:"method_reference,omitempty"`
	SourceElements     []SourceElement `json:"source_elements,omitempty"`
	Extra              map[string]any  `json:"-"`
}

// Method is an extracted methodology record. Methods are never merged;
// they exist to attribute observations to the procedure that produced them.
type Method struct {
	ID      string        `json:"id"`
	PaperID string        `json:"paper_id"`
	Content MethodContent `json:"content"`
}

// MethodContent is the method's content payload.
type MethodContent struct {
	MethodSummary string         `json:"method_summary"`
	NovelMethod   bool           `json:"novel_method,omitempty"`
	Extra         map[string]any `json:"-"`
}

// Link is a typed relation between two extracted entities.
type Link struct {
	FromID  string      `json:"from_id"`
	ToID    string      `json:"to_id"`
	Content LinkContent `json:"content"`
}

// LinkContent describes the relation. Strength is only set for premise
// links; it is nil, not zero, when the pipeline omitted it.
type LinkContent struct {
	LinkType     string         `json:"link_type"`
	LinkCategory string         `json:"link_category"`
	Reasoning    string         `json:"reasoning,omitempty"`
	Strength     *float64       `json:"strength,omitempty"`
	Extra        map[string]any `json:"-"`
}

// UnmarshalJSON promotes the known claim fields and captures any
// unrecognized ones into Extra.
func (c *ClaimContent) UnmarshalJSON(data []byte) error {
	type plain ClaimContent
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	p.Extra = extraFields(data, "rephrased_claim", "reasoning", "source_elements")
	*c = ClaimContent(p)
	return nil
}

// MarshalJSON writes the promoted fields plus the pass-through bag, so a
// decoded record round-trips without dropping pipeline fields.
func (c ClaimContent) MarshalJSON() ([]byte, error) {
	type plain ClaimContent
	data, err := json.Marshal(plain(c))
	if err != nil {
		return nil, err
	}
	return withExtra(data, c.Extra)
}

func (c *ObservationContent) UnmarshalJSON(data []byte) error {
	type plain ObservationContent
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	p.Extra = extraFields(data, "observation_summary", "observation_type", "method_reference", "source_elements")
	*c = ObservationContent(p)
	return nil
}

func (c ObservationContent) MarshalJSON() ([]byte, error) {
	type plain ObservationContent
	data, err := json.Marshal(plain(c))
	if err != nil {
		return nil, err
	}
	return withExtra(data, c.Extra)
}

func (c *MethodContent) UnmarshalJSON(data []byte) error {
	type plain MethodContent
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	p.Extra = extraFields(data, "method_summary", "novel_method")
	*c = MethodContent(p)
	return nil
}

func (c MethodContent) MarshalJSON() ([]byte, error) {
	type plain MethodContent
	data, err := json.Marshal(plain(c))
	if err != nil {
		return nil, err
	}
	return withExtra(data, c.Extra)
}

func (c *LinkContent) UnmarshalJSON(data []byte) error {
	type plain LinkContent
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	p.Extra = extraFields(data, "link_type", "link_category", "reasoning", "strength")
	*c = LinkContent(p)
	return nil
}

func (c LinkContent) MarshalJSON() ([]byte, error) {
	type plain LinkContent
	data, err := json.Marshal(plain(c))
	if err != nil {
		return nil, err
	}
	return withExtra(data, c.Extra)
}

// extraFields collects the fields of a JSON object that are not in the
// promoted set. Returns nil when there are none.
func extraFields(data []byte, known ...string) map[string]any {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil
	}
	for _, k := range known {
		delete(raw, k)
	}
	if len(raw) == 0 {
		return nil
	}
	extra := make(map[string]any, len(raw))
	for k, v := range raw {
		var val any
		if err := json.Unmarshal(v, &val); err == nil {
			extra[k] = val
		}
	}
	return extra
}

// withExtra merges the pass-through bag back into marshalled output.
// Promoted fields win on key collision.
func withExtra(data []byte, extra map[string]any) ([]byte, error) {
	if len(extra) == 0 {
		return data, nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, ok := m[k]; !ok {
			m[k] = v
		}
	}
	return json.Marshal(m)
}
