package export

import (
	"strings"
	"testing"

	"github.com/kairostudio/backoffice/internal/models"
)

func TestFill(t *testing.T) {
	tpl := models.Template{
		Name:    "remise de clés",
		Content: "<p>Projet {{.Project.Name}} pour {{.Client.Name}} — {{.Fields.date}}</p>",
	}
	out, err := Fill(tpl, Context{
		Client:  models.Client{Name: "Résidence Ngor"},
		Project: models.Project{Name: "Villa B12"},
		Fields:  map[string]string{"date": "15/02/2026"},
	})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	for _, want := range []string{"Villa B12", "Résidence Ngor", "15/02/2026"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q: %s", want, out)
		}
	}
}

func TestFillEscapesHTML(t *testing.T) {
	tpl := models.Template{Name: "t", Content: "{{.Client.Name}}"}
	out, err := Fill(tpl, Context{Client: models.Client{Name: "<script>x</script>"}})
	if err != nil {
		t.Fatalf("fill: %v", err)
	}
	if strings.Contains(out, "<script>") {
		t.Fatal("client data must be escaped")
	}
}

func TestFillBadTemplate(t *testing.T) {
	if _, err := Fill(models.Template{Name: "bad", Content: "{{.Oops"}, Context{}); err == nil {
		t.Fatal("parse error expected")
	}
}
