package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const lazyPage = `<html><body>
	<div class="js--lazyload"><img id="near" height="100" data-lazyload="near.png"></div>
	<div style="height: 2400px"></div>
	<div class="js--lazyload"><img id="far" height="100" data-lazyload="far.png 1x"></div>
	<div class="js--lazyload" style="height: 20px"><span>no image here</span></div>
</body></html>`

// writeSite writes page plus the two PNGs it references and returns the
// page's path.
func writeSite(t *testing.T, page string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range []string{"near.png", "far.png"} {
		var buf bytes.Buffer
		if err := png.Encode(&buf, image.NewGray(image.Rect(0, 0, 10, 5))); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, name), buf.Bytes(), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	path := filepath.Join(dir, "index.html")
	if err := os.WriteFile(path, []byte(page), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func scanJSON(t *testing.T, args ...string) scanReport {
	t.Helper()
	out, stderr, err := run(t, append([]string{"scan", "--json"}, args...)...)
	if err != nil {
		t.Fatalf("scan failed: %v\nstderr: %s", err, stderr)
	}
	var report scanReport
	if err := json.Unmarshal([]byte(out), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, out)
	}
	return report
}

func TestScanTriggersOnScroll(t *testing.T) {
	path := writeSite(t, lazyPage)
	report := scanJSON(t, path, "--height", "800", "--scroll", "600,2000")

	if len(report.Steps) != 3 {
		t.Fatalf("steps = %d, want 3", len(report.Steps))
	}
	wantSteps := [][]string{{"#near"}, {}, {"#far"}}
	for i, want := range wantSteps {
		got := report.Steps[i].Triggered
		if strings.Join(got, ",") != strings.Join(want, ",") {
			t.Errorf("step %d triggered %v, want %v", i, got, want)
		}
	}
	if report.Steps[2].ScrollY != 1820 {
		t.Errorf("last scroll = %v, want clamped 1820", report.Steps[2].ScrollY)
	}

	if len(report.Images) != 2 {
		t.Fatalf("images = %d, want 2", len(report.Images))
	}
	for _, img := range report.Images {
		if img.State != "loaded" {
			t.Errorf("%s state = %q, want loaded", img.ID, img.State)
		}
		if img.Loading {
			t.Errorf("%s still has the loading class", img.ID)
		}
		if !strings.HasSuffix(img.CurrentSrc, img.ID+".png") {
			t.Errorf("%s currentSrc = %q", img.ID, img.CurrentSrc)
		}
	}

	metrics := map[string]float64{
		"lazyimg_lazyload_images_triggered_total":   2,
		"lazyimg_lazyload_images_loaded_total":      2,
		"lazyimg_lazyload_containers_skipped_total": 1,
		"lazyimg_lazyload_images_pending":           0,
	}
	for name, want := range metrics {
		if got := report.Metrics[name]; got != want {
			t.Errorf("%s = %v, want %v", name, got, want)
		}
	}
}

func TestScanWithoutScrollLeavesFarImagePending(t *testing.T) {
	path := writeSite(t, lazyPage)
	report := scanJSON(t, path)

	states := map[string]string{}
	for _, img := range report.Images {
		states[img.ID] = img.State
	}
	if states["near"] != "loaded" || states["far"] != "unloaded" {
		t.Errorf("states = %v", states)
	}
	for _, img := range report.Images {
		if img.ID == "far" && (!img.Loading || img.Srcset != "") {
			t.Errorf("far image = %+v, want loading class and no srcset", img)
		}
	}
}

func TestScanWithoutSrcsetSupport(t *testing.T) {
	path := writeSite(t, lazyPage)
	report := scanJSON(t, path, "--no-srcset")
	if report.Srcset {
		t.Error("report claims srcset support")
	}
	if len(report.Images) != 0 {
		t.Errorf("images = %d, want none managed", len(report.Images))
	}
}

func TestScanRunsPageScripts(t *testing.T) {
	page := strings.Replace(lazyPage, "</body>",
		`<script>var check = lazyLoadImages({loadingClass: "pending"});</script></body>`, 1)
	path := writeSite(t, page)
	report := scanJSON(t, path, "--scripts")

	if len(report.Steps) != 1 || strings.Join(report.Steps[0].Triggered, ",") != "#near" {
		t.Errorf("steps = %+v", report.Steps)
	}
}

func TestScanTextOutput(t *testing.T) {
	path := writeSite(t, lazyPage)
	out, _, err := run(t, "scan", path, "--scroll", "2000")
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	for _, want := range []string{"triggered: #near", "triggered: #far", "IMAGE", "lazyimg_lazyload_images_loaded_total 2"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestScanMissingFile(t *testing.T) {
	_, _, err := run(t, "scan", filepath.Join(t.TempDir(), "missing.html"))
	if err == nil {
		t.Fatal("expected an error for a missing page")
	}
}

func TestScanRequiresOneArgument(t *testing.T) {
	if _, _, err := run(t, "scan"); err == nil {
		t.Fatal("expected an argument error")
	}
}

func TestSnapshotWritesPNG(t *testing.T) {
	path := writeSite(t, lazyPage)
	out := filepath.Join(t.TempDir(), "shot.png")
	stdout, _, err := run(t, "snapshot", path, "-o", out, "--scroll", "2000", "--highlight")
	if err != nil {
		t.Fatalf("snapshot: %v", err)
	}
	if !strings.Contains(stdout, "at scroll 1852") {
		t.Errorf("stdout = %q", stdout)
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 1024 || b.Dy() != 768 {
		t.Errorf("size = %v, want default viewport", b)
	}
}

func TestVersionShort(t *testing.T) {
	out, _, err := run(t, "version", "--short")
	if err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out) != version {
		t.Errorf("version = %q, want %q", out, version)
	}
}

func TestVerboseLogsToStderr(t *testing.T) {
	path := writeSite(t, lazyPage)
	_, stderr, err := run(t, "scan", path, "-v")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(stderr, "level=DEBUG") {
		t.Errorf("stderr has no debug logs:\n%s", stderr)
	}
}
