package flow_helpers

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// CadenceTemplateVars are the values substituted into scripts and transactions.
type CadenceTemplateVars struct {
	NonFungibleToken       string
	FungibleToken          string
	FlowToken              string
	IssuingContractName    string
	IssuingContractAddress string
	CatalogAddress         string
}

// ParseCadenceTemplate reads 'name' from 'dir' and executes it as a text/template.
func ParseCadenceTemplate(dir, name string, vars *CadenceTemplateVars) ([]byte, error) {
	templatePath := filepath.Join(dir, name)

	fb, err := os.ReadFile(templatePath)
	if err != nil {
		return nil, fmt.Errorf("error reading cadence template: %w", err)
	}

	if vars == nil {
		vars = &CadenceTemplateVars{}
	}

	tmpl, err := template.New(name).Option("missingkey=error").Parse(string(fb))
	if err != nil {
		return nil, err
	}

	buf := &bytes.Buffer{}

	if err := tmpl.Execute(buf, *vars); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
