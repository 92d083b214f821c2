package service

import (
	"strings"
	"testing"

	"github.com/langchou/wattgazer/internal/models"
)

func TestParseLLMResponseDataQuery(t *testing.T) {
	output := `{"intent_type": "DATA_QUERY", "data_query": {"query_type": "SUM", "params": {"device_name": "Living Room AC", "time_start": null, "time_end": null}}}`

	resp, err := ParseLLMResponse(output)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if resp.IntentType != IntentDataQuery {
		t.Errorf("expected DATA_QUERY, got %s", resp.IntentType)
	}
	if resp.DataQuery.QueryType != QuerySum {
		t.Errorf("expected SUM, got %s", resp.DataQuery.QueryType)
	}
	if resp.DataQuery.Params.DeviceName == nil || *resp.DataQuery.Params.DeviceName != "Living Room AC" {
		t.Errorf("unexpected device name: %v", resp.DataQuery.Params.DeviceName)
	}
}

func TestParseLLMResponseGeneralAdvice(t *testing.T) {
	output := `{"intent_type": "GENERAL_ADVICE", "general_response": {"response_type": "GENERAL", "content": "Turn off standby devices."}}`

	resp, err := ParseLLMResponse(output)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if resp.IntentType != IntentGeneralAdvice {
		t.Errorf("expected GENERAL_ADVICE, got %s", resp.IntentType)
	}
	if resp.GeneralResponse.Content == "" {
		t.Error("expected non-empty content")
	}
}

func TestParseLLMResponseRejectsMalformed(t *testing.T) {
	cases := []string{
		`not json`,
		`{"intent_type": "SOMETHING_ELSE"}`,
		`{"intent_type": "DATA_QUERY"}`,
		`{"intent_type": "GENERAL_ADVICE"}`,
	}
	for _, output := range cases {
		if _, err := ParseLLMResponse(output); err == nil {
			t.Errorf("expected error for %q", output)
		}
	}
}

func TestFallbackIntentKeywords(t *testing.T) {
	forecastQuestions := []string{
		"What will my monthly bill be?",
		"Give me a forecast",
		"How big is my BILL going to be?",
	}
	for _, q := range forecastQuestions {
		intent := fallbackIntent(q)
		if intent.IntentType != IntentDataQuery {
			t.Errorf("question %q: expected DATA_QUERY fallback, got %s", q, intent.IntentType)
		}
		if intent.DataQuery.QueryType != QuerySum {
			t.Errorf("question %q: expected SUM query, got %s", q, intent.DataQuery.QueryType)
		}
		if intent.DataQuery.Params.DeviceName != nil {
			t.Errorf("question %q: expected all-device query", q)
		}
	}

	intent := fallbackIntent("hello there")
	if intent.IntentType != IntentGeneralAdvice {
		t.Errorf("expected GENERAL_ADVICE fallback for greeting, got %s", intent.IntentType)
	}
	if !strings.Contains(intent.GeneralResponse.Content, "Wat") {
		t.Error("expected greeting to introduce the assistant")
	}
}

func TestBuildSystemPromptListsDevices(t *testing.T) {
	devices := []*models.Device{
		{Name: "Living Room AC", Type: "air_conditioner", Room: "living_room"},
		{Name: "Washing Machine", Type: "appliance", Room: "laundry"},
	}

	prompt := buildSystemPrompt(devices)
	if !strings.Contains(prompt, "Living Room AC: air_conditioner in living room") {
		t.Error("prompt missing first device with humanized room")
	}
	if !strings.Contains(prompt, "Washing Machine") {
		t.Error("prompt missing second device")
	}

	empty := buildSystemPrompt(nil)
	if !strings.Contains(empty, "No devices configured yet") {
		t.Error("prompt missing empty-device placeholder")
	}
}
