package htmlview

import (
	"embed"
	"fmt"
	"html/template"
	"io"
)

//go:embed templates/*.html
var templateFiles embed.FS

var pages = template.Must(template.ParseFS(templateFiles, "templates/*.html"))

// WriteProject writes the project page for g.
func WriteProject(w io.Writer, g ProjectGraph) error {
	if err := pages.ExecuteTemplate(w, "project.html", g); err != nil {
		return fmt.Errorf("failed to render project page: %w", err)
	}
	return nil
}

// WriteDeploy writes the deployment page for g.
func WriteDeploy(w io.Writer, g DeployGraph) error {
	if err := pages.ExecuteTemplate(w, "deploy.html", g); err != nil {
		return fmt.Errorf("failed to render deploy page: %w", err)
	}
	return nil
}
