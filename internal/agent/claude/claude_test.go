package claude

import (
	"strings"
	"testing"

	"github.com/linnemanlabs/warden/internal/incident"
)

func TestBuildPrompt(t *testing.T) {
	t.Parallel()

	ictx := &incident.Context{
		AlarmName:   "HighCPUUtilization",
		AlarmState:  "ALARM",
		AlarmReason: "Threshold Crossed: 3 datapoints",
		Region:      "us-east-1",
		Account:     "123456789012",
		LogLines:    []string{"ERROR worker timed out", "ERROR retry exhausted"},
	}

	prompt := buildPrompt("a1b2c3d4e5f60718", ictx)

	for _, want := range []string{
		"Incident ID: a1b2c3d4e5f60718",
		"Alarm: HighCPUUtilization",
		"State: ALARM",
		"Reason: Threshold Crossed: 3 datapoints",
		"Region: us-east-1",
		"Account: 123456789012",
		"ERROR worker timed out",
		"ERROR retry exhausted",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, prompt)
		}
	}
}

func TestBuildPromptNoLogs(t *testing.T) {
	t.Parallel()

	prompt := buildPrompt("a1b2c3d4e5f60718", &incident.Context{
		AlarmName:  "DiskSpaceLow",
		AlarmState: "ALARM",
		Region:     "eu-west-1",
		Account:    "123456789012",
	})

	if !strings.Contains(prompt, "No recent error logs") {
		t.Errorf("prompt should note missing logs:\n%s", prompt)
	}
	if strings.Contains(prompt, "Reason:") {
		t.Errorf("empty reason should be omitted:\n%s", prompt)
	}
}

func TestNewDefaultsModel(t *testing.T) {
	t.Parallel()

	c := New("test-key", "")
	if c.model != DefaultModel {
		t.Errorf("model = %q, want %q", c.model, DefaultModel)
	}

	c = New("test-key", "claude-opus-4-1")
	if c.model != "claude-opus-4-1" {
		t.Errorf("model = %q", c.model)
	}
}
