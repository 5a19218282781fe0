// Package mobileconfig renders iOS configuration profiles.
package mobileconfig

import (
	"bytes"
	_ "embed"
	"fmt"
	"strings"
	"text/template"

	"github.com/google/uuid"
)

const (
	FileName    = "config.mobileconfig"
	ContentType = "application/x-apple-aspen-config"

	DefaultCIDR = "169.254.0.0/16"
)

var defaultExclusions = []string{"localhost", "127.0.0.1"}

// GodModeCIDRs are the ranges offered when god mode is enabled.
var GodModeCIDRs = []string{
	"10.0.0.0/8",
	"172.16.0.0/12",
	"192.168.0.0/16",
	"2.176.0.0/15",
	"2.190.0.0/15",
	"151.232.128.0/17",
	"5.208.0.0/16",
	"164.215.128.0/17",
	"46.143.0.0/17",
	"79.127.0.0/17",
	"46.209.128.0/18",
	"46.209.224.0/19",
	"46.209.64.0/19",
}

type APN struct {
	Value string
	Label string
}

var APNs = []APN{
	{Value: "mcinet", Label: "MCI"},
	{Value: "mtnirancell", Label: "Irancell"},
	{Value: "RighTel", Label: "RighTel"},
	{Value: "ApTel", Label: "ApTel"},
	{Value: "samantel", Label: "samantel"},
	{Value: "shatelmobile", Label: "SHATEL"},
}

func KnownAPN(value string) bool {
	for _, apn := range APNs {
		if apn.Value == value {
			return true
		}
	}
	return false
}

func KnownCIDR(cidr string) bool {
	if cidr == DefaultCIDR {
		return true
	}
	for _, c := range GodModeCIDRs {
		if c == cidr {
			return true
		}
	}
	return false
}

// ValidRootUUID accepts only version 4 UUIDs in canonical form.
func ValidRootUUID(s string) bool {
	id, err := uuid.Parse(s)
	if err != nil {
		return false
	}
	return len(s) == 36 && id.Version() == 4 && id.Variant() == uuid.RFC4122
}

type Params struct {
	RootUUID string
	APN      string
	GodMode  bool
	CIDR     string
}

//go:embed profile.tmpl
var profileTemplate string

var tmpl = template.Must(template.New("profile").Funcs(template.FuncMap{
	"uuid": uuid.NewString,
}).Parse(profileTemplate))

type templateData struct {
	RootUUID   string
	APN        string
	Exclusions []string
}

// Exclusions is the proxy exclusion list for p. Without god mode, or with a
// value that is not a CIDR, the link-local fallback is used.
func Exclusions(p Params) []string {
	cidr := DefaultCIDR
	if p.GodMode && strings.Contains(p.CIDR, "/") {
		cidr = p.CIDR
	}
	out := make([]string, 0, len(defaultExclusions)+1)
	out = append(out, defaultExclusions...)
	return append(out, cidr)
}

func Render(p Params) ([]byte, error) {
	if p.APN == "" || !ValidRootUUID(p.RootUUID) {
		return nil, fmt.Errorf("render profile: apn and a v4 root uuid are required")
	}
	var buf bytes.Buffer
	err := tmpl.Execute(&buf, templateData{
		RootUUID:   p.RootUUID,
		APN:        p.APN,
		Exclusions: Exclusions(p),
	})
	if err != nil {
		return nil, fmt.Errorf("render profile: %w", err)
	}
	return buf.Bytes(), nil
}

// Builder adapts Render to callers that take the renderer as a dependency.
type Builder struct{}

func (Builder) Build(p Params) ([]byte, error) {
	return Render(p)
}
