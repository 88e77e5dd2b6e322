// Package site holds the built-in salon configuration used until the record
// store delivers its own documents.
package site

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/md-rashed-zaman/glamflow/services/salon-service/internal/model"
	"gopkg.in/yaml.v3"
)

//go:embed defaults.yaml
var embeddedDefaults []byte

type Defaults struct {
	Settings model.SiteSettings `yaml:"settings"`
	Promo    string             `yaml:"promo"`
	Services []model.Service    `yaml:"services"`
	Staff    []model.Staff      `yaml:"staff"`
}

// PromoDoc returns the default promo; an empty string means no promo.
func (d Defaults) PromoDoc() model.Promo {
	if strings.TrimSpace(d.Promo) == "" {
		return model.Promo{}
	}
	msg := d.Promo
	return model.Promo{Message: &msg}
}

// Builtin returns the embedded defaults. It panics only if the embedded file
// is malformed, which is a build defect.
func Builtin() Defaults {
	d, err := Parse(embeddedDefaults)
	if err != nil {
		panic(fmt.Sprintf("site: embedded defaults: %v", err))
	}
	return d
}

// Load reads defaults from path, or returns Builtin when path is empty.
func Load(path string) (Defaults, error) {
	if strings.TrimSpace(path) == "" {
		return Builtin(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Defaults{}, fmt.Errorf("read site defaults: %w", err)
	}
	return Parse(raw)
}

func Parse(raw []byte) (Defaults, error) {
	var d Defaults
	if err := yaml.Unmarshal(raw, &d); err != nil {
		return Defaults{}, fmt.Errorf("parse site defaults: %w", err)
	}
	if d.Settings.SiteName == "" {
		return Defaults{}, errors.New("site defaults: settings.site_name is required")
	}
	for _, s := range d.Services {
		if s.ID == "" || s.Name == "" {
			return Defaults{}, errors.New("site defaults: every service needs id and name")
		}
	}
	for _, s := range d.Staff {
		if s.ID == "" || s.Name == "" {
			return Defaults{}, errors.New("site defaults: every staff member needs id and name")
		}
	}
	return d, nil
}
