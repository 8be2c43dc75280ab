package record

import (
	"strings"
	"testing"
)

const sampleJSON = `{
  "papers": [
    {"id": "paper-1", "title": "Sleep and Memory", "filename": "sleep.pdf", "authors": ["Lee, J.", "Xu, B."], "year": 2021}
  ],
  "claims": [
    {"id": "claim-1", "paper_id": "paper-1", "content": {
      "rephrased_claim": "Sleep consolidates memory.",
      "reasoning": "Stated in the abstract.",
      "source_elements": [{"source_element_id": "el-1"}],
      "confidence": 0.9,
      "section": "abstract"
    }}
  ],
  "observations": [
    {"id": "obs-1", "paper_id": "paper-1", "content": {
      "observation_summary": "Recall improved after sleep.",
      "observation_type": "experimental_result",
      "method_reference": "method-1"
    }}
  ],
  "methods": [
    {"id": "method-1", "paper_id": "paper-1", "content": {
      "method_summary": "Paired recall test.",
      "novel_method": true
    }}
  ],
  "links": [
    {"from_id": "claim-1", "to_id": "obs-1", "content": {
      "link_type": "supports",
      "link_category": "claim_to_observation",
      "reasoning": "Direct evidence."
    }},
    {"from_id": "claim-1", "to_id": "claim-2", "content": {
      "link_type": "premise",
      "link_category": "claim_to_claim",
      "strength": 0.7
    }}
  ]
}`

func TestJSONDecode(t *testing.T) {
	lib, err := (JSONDecoder{}).Decode(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lib.Papers) != 1 || len(lib.Claims) != 1 || len(lib.Observations) != 1 {
		t.Fatalf("unexpected counts: papers=%d claims=%d observations=%d",
			len(lib.Papers), len(lib.Claims), len(lib.Observations))
	}
	c := lib.Claims[0]
	if c.Content.RephrasedClaim != "Sleep consolidates memory." {
		t.Errorf("rephrased claim = %q", c.Content.RephrasedClaim)
	}
	if len(c.Content.SourceElements) != 1 || c.Content.SourceElements[0].SourceElementID != "el-1" {
		t.Errorf("source elements = %+v", c.Content.SourceElements)
	}
}

func TestDecodeKeepsUnknownFields(t *testing.T) {
	lib, err := (JSONDecoder{}).Decode(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	extra := lib.Claims[0].Content.Extra
	if extra == nil {
		t.Fatal("expected unknown fields in Extra")
	}
	if got := extra["section"]; got != "abstract" {
		t.Errorf("extra section = %v, want abstract", got)
	}
	if got, ok := extra["confidence"].(float64); !ok || got != 0.9 {
		t.Errorf("extra confidence = %v, want 0.9", extra["confidence"])
	}
	if _, promoted := extra["rephrased_claim"]; promoted {
		t.Error("promoted field leaked into Extra")
	}
}

func TestContentRoundTrip(t *testing.T) {
	lib, err := (JSONDecoder{}).Decode(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	data, err := lib.Claims[0].Content.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	out := string(data)
	for _, want := range []string{`"section":"abstract"`, `"rephrased_claim":"Sleep consolidates memory."`} {
		if !strings.Contains(out, want) {
			t.Errorf("round-tripped content missing %s: %s", want, out)
		}
	}
}

func TestLinkStrength(t *testing.T) {
	lib, err := (JSONDecoder{}).Decode(strings.NewReader(sampleJSON))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got := lib.Links[0].Content.Strength; got != nil {
		t.Errorf("supports link strength = %v, want nil", *got)
	}
	premise := lib.Links[1].Content
	if premise.Strength == nil || *premise.Strength != 0.7 {
		t.Errorf("premise strength = %v, want 0.7", premise.Strength)
	}
}

func TestYAMLDecode(t *testing.T) {
	doc := `
papers:
  - id: paper-1
    title: Sleep and Memory
    filename: sleep.pdf
claims:
  - id: claim-1
    paper_id: paper-1
    content:
      rephrased_claim: Sleep consolidates memory.
      section: abstract
links:
  - from_id: claim-1
    to_id: obs-1
    content:
      link_type: supports
      link_category: claim_to_observation
`
	lib, err := (YAMLDecoder{}).Decode(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(lib.Claims) != 1 {
		t.Fatalf("claims = %d, want 1", len(lib.Claims))
	}
	if got := lib.Claims[0].Content.Extra["section"]; got != "abstract" {
		t.Errorf("yaml extra section = %v, want abstract", got)
	}
	if lib.Links[0].Content.LinkType != "supports" {
		t.Errorf("link type = %q", lib.Links[0].Content.LinkType)
	}
}

func TestYAMLDecodeEmpty(t *testing.T) {
	lib, err := (YAMLDecoder{}).Decode(strings.NewReader(""))
	if err != nil {
		t.Fatalf("decode empty: %v", err)
	}
	if len(lib.Papers) != 0 || len(lib.Links) != 0 {
		t.Errorf("empty document produced entities: %+v", lib)
	}
}

func TestRegistryLookup(t *testing.T) {
	reg := NewRegistry()
	for _, ext := range []string{"json", "yaml", "yml", "YAML"} {
		if _, err := reg.Get(ext); err != nil {
			t.Errorf("Get(%q): %v", ext, err)
		}
	}
	if _, err := reg.Get("csv"); err == nil {
		t.Error("expected error for unregistered format")
	}
}

func TestDecodeMalformed(t *testing.T) {
	if _, err := (JSONDecoder{}).Decode(strings.NewReader(`{"claims": [`)); err == nil {
		t.Error("expected error for truncated json")
	}
	if _, err := (YAMLDecoder{}).Decode(strings.NewReader("claims: [a, b")); err == nil {
		t.Error("expected error for truncated yaml")
	}
}
