// Package ini loads the engine's module configuration files.
//
// The format is line oriented and deliberately forgiving:
//
//	# comment to end of line
//	debug                 global option, value "true"
//	[video]               section header (also "!video" or "[video" at end of line)
//	width = 640           option belonging to the current section
//
// Options that appear before the first section header are globals. Values are
// always strings; callers convert them as needed.
//
// Parsing is split in two layers:
//   - Tokenizer scans bytes and yields one Token per call (section, option,
//     comment or finished), growing a single reusable value buffer.
//   - Loader pulls tokens and builds a Configuration. It either returns a
//     complete Configuration or an error, never a partial tree.
//
// Usage:
//
//	loader := ini.NewLoader("configs")
//	loader.SetLogger(log)
//	cfg, err := loader.Load("HAP") // reads configs/HAP.ini
//	if err != nil {
//	    return err
//	}
//	section, _ := cfg.Section("video")
//	width := section.Value("width", "640")
package ini
