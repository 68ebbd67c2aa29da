package discovery

import (
	"context"
	"testing"
)

func TestNaturalKeyFoldsCaseAndPunctuation(t *testing.T) {
	a := NaturalKey("Insane Clutch!!!", "ProGamer")
	b := NaturalKey("insane   clutch", "progamer")
	if a != b {
		t.Fatalf("expected cosmetic variants to collide: %q vs %q", a, b)
	}
}

func TestNaturalKeyNormalizesUnicode(t *testing.T) {
	// Fullwidth forms normalize to their ASCII counterparts under NFKC.
	a := NaturalKey("ＧＴＡ６ ｃｌｉｐ", "ｕｐ")
	b := NaturalKey("gta6 clip", "up")
	if a != b {
		t.Fatalf("expected unicode variants to collide: %q vs %q", a, b)
	}
}

func TestNaturalKeySeparatesTitleFromUploader(t *testing.T) {
	a := NaturalKey("clip one", "creator")
	b := NaturalKey("clip", "one creator")
	if a == b {
		t.Fatal("title and uploader must not blur together")
	}
}

func TestDeduperAdmitsOncePerKey(t *testing.T) {
	d := NewDeduper()
	first := Candidate{Title: "Epic Win", Uploader: "streamer"}
	second := Candidate{Title: "EPIC WIN!", Uploader: "Streamer"}
	third := Candidate{Title: "Epic Win", Uploader: "someone-else"}

	if !d.Admit(first) {
		t.Fatal("expected first candidate admitted")
	}
	if d.Admit(second) {
		t.Fatal("expected cosmetic duplicate rejected")
	}
	if !d.Admit(third) {
		t.Fatal("expected same title from different uploader admitted")
	}
}

func TestNewItemAssignsDistinctEphemeralIDs(t *testing.T) {
	candidate := Candidate{Title: "clip"}
	a := NewItem("topic", candidate, Metadata{Title: "clip"})
	b := NewItem("topic", candidate, Metadata{Title: "clip"})
	if a.EphemeralID == "" || a.EphemeralID == b.EphemeralID {
		t.Fatalf("expected distinct non-empty ids, got %q and %q", a.EphemeralID, b.EphemeralID)
	}
	if a.SourceID != "topic" {
		t.Fatalf("expected source recorded, got %q", a.SourceID)
	}
}

func TestPassthroughMetadataSkipsUntitled(t *testing.T) {
	gen := PassthroughMetadata{}
	_, ok, err := gen.Generate(context.Background(), Candidate{Title: "   "})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if ok {
		t.Fatal("expected untitled candidate to be unusable")
	}

	meta, ok, err := gen.Generate(context.Background(), Candidate{Title: "Big Play", Uploader: "creator", Tags: []string{"gaming"}})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if !ok {
		t.Fatal("expected titled candidate usable")
	}
	if meta.Title != "Big Play" || len(meta.Tags) != 1 {
		t.Fatalf("unexpected metadata: %+v", meta)
	}
}
