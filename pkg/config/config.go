/*
Copyright 2024 The Zimg Authors

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

     http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package config loads the zimg INI configuration. The loaded Config
// is immutable: it is built once at startup and read-only afterwards,
// shared by every worker.
package config // import "zimg.org/pkg/config"

import (
	"fmt"
	"os"
	"runtime"
	"strings"

	ini "github.com/go-ini/ini"
	"github.com/pkg/errors"

	"zimg.org/pkg/access"
)

// Storage modes.
const (
	ModeLocal = 1 // sharded filesystem tree under ImgPath
	ModeKV    = 2 // memcached-protocol store at MemcAddr
)

// Header is one extra response header taken verbatim from config.
type Header struct {
	Key   string
	Value string
}

// Config is the full server configuration with defaults filled in.
type Config struct {
	LogPath  string
	LogLevel string

	Port     int
	RootPath string

	ImgPath string
	Mode    int

	MemcAddr string

	Headers    []Header
	UpAccess   *access.List
	DownAccess *access.List

	NumThreads int
	MaxSize    int64
}

// Default returns the configuration used when no file is present.
// Load falls back to these values per key, not per file.
func Default() *Config {
	return &Config{
		LogPath:    "./log",
		LogLevel:   "info",
		Port:       4869,
		RootPath:   "./www",
		ImgPath:    "./img",
		Mode:       ModeLocal,
		MemcAddr:   "127.0.0.1:11211",
		NumThreads: runtime.NumCPU(),
		MaxSize:    100 << 20,
	}
}

// Load reads the INI file at path. A missing file yields the default
// configuration; a malformed file or rule list is a startup error.
func Load(path string) (*Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c, nil
	}

	f, err := ini.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "config: load %q", path)
	}

	zlog := f.Section("zlog")
	c.LogPath = zlog.Key("log-path").MustString(c.LogPath)
	c.LogLevel = zlog.Key("level").MustString(c.LogLevel)

	zhttpd := f.Section("zhttpd")
	c.Port = zhttpd.Key("port").MustInt(c.Port)
	c.RootPath = zhttpd.Key("root-path").MustString(c.RootPath)

	zimg := f.Section("zimg")
	c.ImgPath = zimg.Key("img-path").MustString(c.ImgPath)
	if zimg.Key("mode").MustInt(ModeLocal) == ModeLocal {
		c.Mode = ModeLocal
	} else {
		c.Mode = ModeKV
	}
	c.NumThreads = zimg.Key("num-threads").MustInt(c.NumThreads)
	c.MaxSize = zimg.Key("max-size").MustInt64(c.MaxSize)
	c.Headers = ParseHeaders(zimg.Key("headers").String())

	c.UpAccess, err = access.Parse(zimg.Key("up-access").String())
	if err != nil {
		return nil, err
	}
	c.DownAccess, err = access.Parse(zimg.Key("down-access").String())
	if err != nil {
		return nil, err
	}

	memc := f.Section("memcached")
	mip := memc.Key("mip").MustString("127.0.0.1")
	mport := memc.Key("mport").MustInt(11211)
	c.MemcAddr = fmt.Sprintf("%s:%d", mip, mport)

	if c.NumThreads < 1 {
		c.NumThreads = 1
	}
	return c, nil
}

// ParseHeaders parses the "k1:v1;k2:v2" extra-header list, preserving
// order. Entries without a colon are dropped, as the original did.
func ParseHeaders(s string) []Header {
	var hs []Header
	for _, ent := range strings.Split(s, ";") {
		k, v, ok := strings.Cut(ent, ":")
		if !ok {
			continue
		}
		k = strings.TrimSpace(k)
		v = strings.TrimSpace(v)
		if k == "" {
			continue
		}
		hs = append(hs, Header{Key: k, Value: v})
	}
	return hs
}
