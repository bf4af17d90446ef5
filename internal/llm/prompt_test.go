package llm

import (
	"strings"
	"testing"
)

func TestBuildGroundedPrompt(t *testing.T) {
	prompt := BuildGroundedPrompt("What is the refund policy?",
		[]string{"Refunds within 30 days.", "Contact support first."})

	if !strings.Contains(prompt, "**Question:** What is the refund policy?") {
		t.Errorf("prompt missing the question")
	}
	if !strings.Contains(prompt, "**Document 1:**\nRefunds within 30 days.") {
		t.Errorf("prompt missing first document")
	}
	if !strings.Contains(prompt, "**Document 2:**\nContact support first.") {
		t.Errorf("prompt missing second document")
	}
	if !strings.Contains(prompt, "**Instructions:**") {
		t.Errorf("prompt missing instructions")
	}
	if !strings.HasSuffix(prompt, "**Answer:**") {
		t.Errorf("prompt should end with the answer marker")
	}
}

func TestBuildPlainPrompt(t *testing.T) {
	prompt := BuildPlainPrompt("What is Go?")

	if !strings.Contains(prompt, "**Question:** What is Go?") {
		t.Errorf("prompt missing the question")
	}
	if strings.Contains(prompt, "**Available Context:**") {
		t.Errorf("plain prompt must not reference context")
	}
	if !strings.HasSuffix(prompt, "**Answer:**") {
		t.Errorf("prompt should end with the answer marker")
	}
}

func TestPromptDocumentNumbering(t *testing.T) {
	chunks := []string{"a", "b", "c", "d", "e"}
	prompt := BuildGroundedPrompt("q", chunks)

	for i := 1; i <= 5; i++ {
		marker := strings.Replace("**Document N:**", "N", string(rune('0'+i)), 1)
		if !strings.Contains(prompt, marker) {
			t.Errorf("missing %s", marker)
		}
	}
}
