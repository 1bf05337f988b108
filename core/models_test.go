package core

import (
	"testing"
)

func TestIDFromContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		wantSame bool
	}{
		{
			name:     "same content produces same ID",
			content:  "test content",
			wantSame: true,
		},
		{
			name:     "empty string",
			content:  "",
			wantSame: true,
		},
		{
			name:     "long content",
			content:  "This is a much longer piece of content that should still hash consistently",
			wantSame: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id1 := IDFromContent(tt.content)
			id2 := IDFromContent(tt.content)

			if tt.wantSame && id1 != id2 {
				t.Errorf("IDFromContent() produced different IDs for same content: %d vs %d", id1, id2)
			}
		})
	}
}

func TestIDFromContent_Different(t *testing.T) {
	id1 := IDFromContent("content1")
	id2 := IDFromContent("content2")

	if id1 == id2 {
		t.Errorf("IDFromContent() produced same ID for different content")
	}
}

func TestNormalizeQuestion(t *testing.T) {
	tests := []struct {
		name     string
		question string
		want     string
	}{
		{
			name:     "lowercases",
			question: "What Is Machine Learning?",
			want:     "what is machine learning?",
		},
		{
			name:     "trims surrounding whitespace",
			question: "  what is go?  \n",
			want:     "what is go?",
		},
		{
			name:     "interior whitespace untouched",
			question: "what  is   go",
			want:     "what  is   go",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NormalizeQuestion(tt.question); got != tt.want {
				t.Errorf("NormalizeQuestion() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueryID(t *testing.T) {
	tests := []struct {
		name string
		a    string
		b    string
		same bool
	}{
		{
			name: "identical questions share an ID",
			a:    "what is machine learning?",
			b:    "what is machine learning?",
			same: true,
		},
		{
			name: "case differences share an ID",
			a:    "What is Machine Learning?",
			b:    "what is machine learning?",
			same: true,
		},
		{
			name: "surrounding whitespace shares an ID",
			a:    "  what is go?  ",
			b:    "what is go?",
			same: true,
		},
		{
			name: "distinct questions differ",
			a:    "what is go?",
			b:    "what is rust?",
			same: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			idA := QueryID(tt.a)
			idB := QueryID(tt.b)

			if tt.same && idA != idB {
				t.Errorf("QueryID() = %q vs %q, want equal", idA, idB)
			}
			if !tt.same && idA == idB {
				t.Errorf("QueryID() produced same ID %q for distinct questions", idA)
			}
		})
	}
}

func TestQueryID_Stable(t *testing.T) {
	// The ID doubles as a storage key, so its shape must stay stable.
	id := QueryID("what is machine learning?")
	if len(id) != 32 {
		t.Errorf("QueryID() length = %d, want 32 hex chars", len(id))
	}
}
