// Copyright (c) HashiCorp, Inc
// SPDX-License-Identifier: MPL-2.0

// Package config loads wordbankd's YAML configuration, generalized
// from squid's Config{port} to the full service.* tree. A missing
// config file is not an error: it is equivalent to an all-default
// configuration, the same tolerance the tokenizer applies to a
// missing stopword file.
package config

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// MessageType selects which tokens Leaderboard counts.
type MessageType string

const (
	MessageAnything MessageType = "anything"
	MessageWord     MessageType = "word"
	MessageHashtag  MessageType = "hashtag"
)

// Service holds the service.* config tree.
type Service struct {
	// Name is a label only; it has no functional effect.
	Name string `yaml:"name"`
	// Algorithm selects the ranker backend. Only "hashmap" exists today.
	Algorithm string `yaml:"algorithm"`
	// MaxWords clamps Leaderboard.length requests. Zero means unbounded.
	MaxWords uint32 `yaml:"max_words"`
	// MessageType filters which tokens are counted.
	MessageType MessageType `yaml:"message_type"`
	// Lang is an advisory language filter; nothing enforces it yet.
	Lang string `yaml:"lang"`
	// Exclude lists exact-match tokens that are never counted.
	Exclude []string `yaml:"exclude"`
}

// Config is the full on-disk configuration shape.
type Config struct {
	// Port is the RPC listen port. If zero, falls back to the `port`
	// environment variable, then to DefaultPort.
	Port    uint16  `yaml:"port"`
	Service Service `yaml:"service"`

	// StopwordsPath is the tokenizer's stop-word list path.
	StopwordsPath string `yaml:"stopwords_path"`
	// DataDir is the sentence store's directory.
	DataDir string `yaml:"data_dir"`
	// MetaDBPath is the bbolt segment-metadata cache path. Empty disables it.
	MetaDBPath string `yaml:"metadb_path"`
	// MemtableThresholdKB sizes the write-buffer flush threshold; 0 means
	// write straight through, bypassing the memtable.
	MemtableThresholdKB int `yaml:"memtable_threshold_kb"`
}

// DefaultPort is used when neither the config file nor the environment
// names a port.
const DefaultPort = 7878

// PortEnvVar is the environment variable consulted when Port is unset.
const PortEnvVar = "port"

func defaults() Config {
	return Config{
		Service: Service{
			Name:        "wordbank",
			Algorithm:   "hashmap",
			MaxWords:    0,
			MessageType: MessageAnything,
			Lang:        "",
		},
		StopwordsPath:       "./stopwords",
		DataDir:             "./data",
		MemtableThresholdKB: 0,
	}
}

// Load reads and parses the YAML config file at path. A missing file
// returns the all-default configuration, not an error.
func Load(path string) (Config, error) {
	cfg := defaults()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyPortEnv(&cfg)
			return cfg, nil
		}
		return Config{}, err
	}

	if err := yaml.Unmarshal(b, &cfg); err != nil {
		return Config{}, err
	}
	applyPortEnv(&cfg)
	return cfg, nil
}

// applyPortEnv fills Port from the environment when the file left it
// at its zero value.
func applyPortEnv(cfg *Config) {
	if cfg.Port != 0 {
		return
	}
	if raw := os.Getenv(PortEnvVar); raw != "" {
		if v, err := strconv.ParseUint(raw, 10, 16); err == nil {
			cfg.Port = uint16(v)
			return
		}
	}
	cfg.Port = DefaultPort
}
