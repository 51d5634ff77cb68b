// Package config loads compiler configuration from a TOML file read and
// unmarshaled with github.com/BurntSushi/toml, with a defined notion of
// what's missing versus malformed. There is no
// recursive inclusion — one file, three layers on top of it: built-in
// defaults, the TOML file, then environment variables, each overriding the
// last, with an explicit Options struct from the caller (e.g. CLI flags)
// winning over all of them.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Options is the fully-resolved configuration a compilation or daemon run
// uses. Every field has a usable default even with no TOML file and no
// environment variables present.
type Options struct {
	// LibRoots are additional directories searched for included modules,
	// after the importing file's own directory.
	LibRoots []string

	// StdRoot is the directory the standard library is loaded from.
	StdRoot string

	// AllowEmbeddedC is loaded from the defaults, the TOML file and the
	// environment, but no compile stage reads it: embedded-C statements
	// (`__C_CODE__(...)`) and calls (`__C_CALL__(...)`) are accepted
	// whatever its value.
	AllowEmbeddedC bool

	// FeatureManifestFile is the default filename the CLI writes the
	// used-feature-tag manifest to, alongside the generated C file.
	FeatureManifestFile string
}

// Default returns the built-in defaults, the bottom layer of Load's
// precedence order.
func Default() Options {
	return Options{
		LibRoots:            nil,
		StdRoot:             "",
		AllowEmbeddedC:      true,
		FeatureManifestFile: "features.txt",
	}
}

// tomlFile is the on-disk shape of tusmoc.toml; every field is optional, so a
// partial file only overrides what it mentions.
type tomlFile struct {
	LibRoots            []string `toml:"lib_roots"`
	StdRoot             string   `toml:"std_root"`
	AllowEmbeddedC      *bool    `toml:"allow_embedded_c"`
	FeatureManifestFile string   `toml:"feature_manifest_file"`
}

// Load resolves Options by layering, in increasing priority: Default(), the
// TOML file at tomlPath (if non-empty and present), TUSMOC_-prefixed
// environment variables, then override on top of all of it. A missing TOML
// file is not an error — it is simply skipped. A TOML file that exists but
// fails to parse is a startup error.
func Load(tomlPath string, override Options) (Options, error) {
	opts := Default()

	if tomlPath != "" {
		data, err := os.ReadFile(tomlPath)
		if err != nil {
			if !os.IsNotExist(err) {
				return Options{}, fmt.Errorf("%q: reading config: %w", tomlPath, err)
			}
		} else {
			var tf tomlFile
			if _, err := toml.Decode(string(data), &tf); err != nil {
				return Options{}, fmt.Errorf("%q: malformed config: %w", tomlPath, err)
			}
			applyTOML(&opts, tf)
		}
	}

	applyEnv(&opts)
	applyOverride(&opts, override)

	return opts, nil
}

func applyTOML(opts *Options, tf tomlFile) {
	if len(tf.LibRoots) > 0 {
		opts.LibRoots = tf.LibRoots
	}
	if tf.StdRoot != "" {
		opts.StdRoot = tf.StdRoot
	}
	if tf.AllowEmbeddedC != nil {
		opts.AllowEmbeddedC = *tf.AllowEmbeddedC
	}
	if tf.FeatureManifestFile != "" {
		opts.FeatureManifestFile = tf.FeatureManifestFile
	}
}

func applyEnv(opts *Options) {
	if v := os.Getenv("TUSMOC_LIB_ROOTS"); v != "" {
		opts.LibRoots = strings.Split(v, string(os.PathListSeparator))
	}
	if v := os.Getenv("TUSMOC_STD_ROOT"); v != "" {
		opts.StdRoot = v
	}
	if v := os.Getenv("TUSMOC_ALLOW_EMBEDDED_C"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			opts.AllowEmbeddedC = b
		}
	}
	if v := os.Getenv("TUSMOC_FEATURE_MANIFEST_FILE"); v != "" {
		opts.FeatureManifestFile = v
	}
}

// applyOverride merges any non-zero field of override onto opts; this is how
// explicit CLI flags win over everything else in Load's precedence order.
func applyOverride(opts *Options, override Options) {
	if len(override.LibRoots) > 0 {
		opts.LibRoots = override.LibRoots
	}
	if override.StdRoot != "" {
		opts.StdRoot = override.StdRoot
	}
	if override.FeatureManifestFile != "" {
		opts.FeatureManifestFile = override.FeatureManifestFile
	}
	// AllowEmbeddedC has no unset sentinel in a bool; callers that want to
	// force it off pass an Options with every other field zeroed and rely on
	// the TOML/env layers below, or construct Options directly without Load.
}
