package ini

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// recordingLogger captures log calls for assertions.
type recordingLogger struct {
	warnings []string
	errors   []string
}

func (r *recordingLogger) Debug(string, ...any) {}

func (r *recordingLogger) Warn(msg string, _ ...any) {
	r.warnings = append(r.warnings, msg)
}

func (r *recordingLogger) Error(msg string, _ ...any) {
	r.errors = append(r.errors, msg)
}

func mustParse(t *testing.T, input string) *Configuration {
	t.Helper()

	cfg, err := Parse(strings.NewReader(input), nil)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	return cfg
}

func TestParse_SectionWithOptions(t *testing.T) {
	cfg := mustParse(t, "[video]\nwidth=640\nheight=480\n")

	sections := cfg.Sections()
	if len(sections) != 1 {
		t.Fatalf("sections = %d, want 1", len(sections))
	}
	if len(cfg.Globals()) != 0 {
		t.Errorf("globals = %d, want 0", len(cfg.Globals()))
	}

	video := sections[0]
	if video.Name() != "video" {
		t.Errorf("section name = %q, want %q", video.Name(), "video")
	}

	want := []Option{{"width", "640"}, {"height", "480"}}
	got := video.Options()
	if len(got) != len(want) {
		t.Fatalf("options = %+v, want %+v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("option %d = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestParse_GlobalsBeforeSection(t *testing.T) {
	cfg := mustParse(t, "debug\n[video]\nvsync\n")

	globals := cfg.Globals()
	if len(globals) != 1 || globals[0] != (Option{Key: "debug", Value: "true"}) {
		t.Errorf("globals = %+v, want [{debug true}]", globals)
	}

	video, ok := cfg.Section("video")
	if !ok {
		t.Fatal("section video not found")
	}
	options := video.Options()
	if len(options) != 1 || options[0] != (Option{Key: "vsync", Value: "true"}) {
		t.Errorf("video options = %+v, want [{vsync true}]", options)
	}
}

func TestParse_BareOptionEqualsExplicitTrue(t *testing.T) {
	bare := mustParse(t, "flag\n")
	explicit := mustParse(t, "flag=true\n")

	if bare.Globals()[0] != explicit.Globals()[0] {
		t.Errorf("bare = %+v, explicit = %+v", bare.Globals()[0], explicit.Globals()[0])
	}
	if bare.Globals()[0] != (Option{Key: "flag", Value: "true"}) {
		t.Errorf("bare option = %+v, want {flag true}", bare.Globals()[0])
	}
}

func TestParse_EmptyInput(t *testing.T) {
	cfg := mustParse(t, "")

	if len(cfg.Sections()) != 0 || len(cfg.Globals()) != 0 {
		t.Errorf("empty input produced %d sections and %d globals",
			len(cfg.Sections()), len(cfg.Globals()))
	}
}

func TestParse_UnterminatedSection(t *testing.T) {
	cfg := mustParse(t, "[video\nwidth=640\n")

	video, ok := cfg.Section("video")
	if !ok {
		t.Fatal("unterminated section not accepted")
	}
	if v, _ := video.Get("width"); v != "640" {
		t.Errorf("width = %q, want 640", v)
	}
}

func TestParse_OptionSplitting(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Option
	}{
		{"simple", "key=value", Option{"key", "value"}},
		{"spaces around separator", "key = value", Option{"key", "value"}},
		{"only first separator splits", "url=a=b=c", Option{"url", "a=b=c"}},
		{"empty value", "key=", Option{"key", ""}},
		{"bare", "key", Option{"key", "true"}},
		{"internal whitespace kept", "title = Hello  World", Option{"title", "Hello  World"}},
		{"hash inside value", "color=#ff00ff", Option{"color", "#ff00ff"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := mustParse(t, tt.input+"\n")
			globals := cfg.Globals()
			if len(globals) != 1 {
				t.Fatalf("globals = %+v, want one option", globals)
			}
			if globals[0] != tt.want {
				t.Errorf("option = %+v, want %+v", globals[0], tt.want)
			}
		})
	}
}

func TestParse_OrderPreserved(t *testing.T) {
	input := `
# leading comment
a=1
b=2

[first]
x=1
y=2
z=3

!second
k=v

[third]
`
	cfg := mustParse(t, input)

	var names []string
	for _, s := range cfg.Sections() {
		names = append(names, s.Name())
	}
	if strings.Join(names, ",") != "first,second,third" {
		t.Errorf("section order = %v", names)
	}

	first, _ := cfg.Section("first")
	var keys []string
	for _, o := range first.Options() {
		keys = append(keys, o.Key)
	}
	if strings.Join(keys, ",") != "x,y,z" {
		t.Errorf("option order = %v", keys)
	}

	if len(cfg.Globals()) != 2 {
		t.Errorf("globals = %+v, want a and b", cfg.Globals())
	}
	for _, s := range cfg.Sections() {
		if _, ok := s.Get("a"); ok {
			t.Errorf("global a attached to section %s", s.Name())
		}
	}
}

func TestParse_AnomaliesAreWarnings(t *testing.T) {
	logger := &recordingLogger{}

	cfg, err := Parse(strings.NewReader("[]\n=orphan\n[video]\nwidth=1\n"), logger)
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	if len(logger.warnings) != 2 {
		t.Errorf("warnings = %v, want 2", logger.warnings)
	}
	if len(cfg.Sections()) != 1 || len(cfg.Globals()) != 0 {
		t.Errorf("sections = %d, globals = %d; want 1 and 0",
			len(cfg.Sections()), len(cfg.Globals()))
	}
}

func TestParse_TokenTooLongAbortsLoad(t *testing.T) {
	logger := &recordingLogger{}
	input := "[video]\nwidth=640\nhuge=" + strings.Repeat("x", MaxTokenSize) + "\n"

	cfg, err := Parse(strings.NewReader(input), logger)
	if !errors.Is(err, ErrTokenTooLong) {
		t.Fatalf("Parse() error = %v, want ErrTokenTooLong", err)
	}
	if cfg != nil {
		t.Error("Parse() returned a partial configuration on failure")
	}
	if len(logger.errors) != 1 {
		t.Errorf("errors logged = %v, want 1", logger.errors)
	}
}

func TestSection_GetLastWins(t *testing.T) {
	cfg := mustParse(t, "[video]\nwidth=1\nwidth=2\n")
	video, _ := cfg.Section("video")

	if v, _ := video.Get("width"); v != "2" {
		t.Errorf("Get(width) = %q, want 2", v)
	}
	if video.Len() != 2 {
		t.Errorf("Len() = %d, want 2 (duplicates kept)", video.Len())
	}
	if got := video.Value("missing", "fallback"); got != "fallback" {
		t.Errorf("Value(missing) = %q, want fallback", got)
	}
}

func TestSection_ExactNameMatch(t *testing.T) {
	cfg := mustParse(t, "[Video]\n[video ]\n")

	if _, ok := cfg.Section("video"); !ok {
		t.Error("trailing whitespace in header should not prevent a match")
	}
	if s, _ := cfg.Section("Video"); s == nil || s.Name() != "Video" {
		t.Error("case-sensitive lookup failed")
	}
}

func TestConfiguration_AccessorsReturnCopies(t *testing.T) {
	cfg := mustParse(t, "g=1\n[video]\nwidth=1\n")

	cfg.Globals()[0].Value = "changed"
	cfg.Sections()[0] = NewSection("other")
	video, _ := cfg.Section("video")
	video.Options()[0].Value = "changed"

	if v, _ := cfg.Global("g"); v != "1" {
		t.Errorf("global mutated through accessor: %q", v)
	}
	if cfg.Sections()[0].Name() != "video" {
		t.Error("sections mutated through accessor")
	}
	if v, _ := video.Get("width"); v != "1" {
		t.Errorf("option mutated through accessor: %q", v)
	}
}

func TestLoader_Load(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "HAP.ini"), []byte("[video]\nwidth=640\n"), 0600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}

	loader := NewLoader(dir)
	cfg, err := loader.Load("HAP")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if _, ok := cfg.Section("video"); !ok {
		t.Error("section video missing")
	}

	// An identifier with the extension resolves to the same file.
	if _, err := loader.Load("HAP.ini"); err != nil {
		t.Errorf("Load(HAP.ini) error = %v", err)
	}
}

func TestLoader_MissingFile(t *testing.T) {
	logger := &recordingLogger{}
	loader := NewLoader(t.TempDir())
	loader.SetLogger(logger)

	cfg, err := loader.Load("absent")
	if !errors.Is(err, ErrOpen) {
		t.Fatalf("Load() error = %v, want ErrOpen", err)
	}
	if !errors.Is(err, os.ErrNotExist) {
		t.Errorf("Load() error should carry the system error, got %v", err)
	}
	if cfg != nil {
		t.Error("Load() returned configuration for missing file")
	}
	if len(logger.errors) != 1 {
		t.Errorf("errors logged = %v, want 1", logger.errors)
	}
}

func TestLoader_NoIdentifier(t *testing.T) {
	_, err := NewLoader("").Load("")
	if !errors.Is(err, ErrNoIdentifier) {
		t.Errorf("Load(\"\") error = %v, want ErrNoIdentifier", err)
	}
}

func TestFilename(t *testing.T) {
	tests := []struct {
		identifier string
		want       string
	}{
		{"HAP", "HAP.ini"},
		{"video", "video.ini"},
		{"already.ini", "already.ini"},
		{"dotted.name", "dotted.name.ini"},
	}

	for _, tt := range tests {
		if got := Filename(tt.identifier); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.identifier, got, tt.want)
		}
	}
}

func BenchmarkParse(b *testing.B) {
	var sb strings.Builder
	for i := range 200 {
		fmt.Fprintf(&sb, "[section%d]\n", i)
		for j := range 20 {
			fmt.Fprintf(&sb, "key%d = value number %d\n", j, j)
		}
	}
	input := sb.String()

	b.ResetTimer()
	for range b.N {
		if _, err := Parse(strings.NewReader(input), nil); err != nil {
			b.Fatal(err)
		}
	}
}
