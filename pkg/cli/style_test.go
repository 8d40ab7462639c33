package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestPrinter(t *testing.T) {
	var out, errOut bytes.Buffer
	p := NewPrinter(&out, &errOut)

	p.Success("wrote %s", "a.json")
	p.Info("using %s", "memory")
	p.Error("failed: %d", 3)
	p.Warning("careful")
	p.Verbose(false, "hidden")
	p.Verbose(true, "shown")

	for _, want := range []string{"✓", "wrote a.json", "using memory"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("stdout missing %q: %q", want, out.String())
		}
	}
	for _, want := range []string{"Error:", "failed: 3", "careful", "[verbose] shown"} {
		if !strings.Contains(errOut.String(), want) {
			t.Errorf("stderr missing %q: %q", want, errOut.String())
		}
	}
	if strings.Contains(errOut.String(), "hidden") {
		t.Errorf("verbose line printed while not verbose: %q", errOut.String())
	}
}
