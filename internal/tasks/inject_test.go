package tasks

import (
	"context"
	"slices"
	"strings"
	"testing"

	"github.com/spf13/afero"
)

const indexPage = `<html>
<head>
  <!-- inject:css -->
  <!-- endinject -->
</head>
<body>
  <!-- inject:js -->
  <script src="stale.js"></script>
  <!-- endinject -->
</body>
</html>
`

func TestSortAssets(t *testing.T) {
	paths := []string{"app/main.js", "lib/jquery/jquery.js", "app/boot.js", "lib/angular/angular.js", "vendor.js"}
	SortAssets(paths)

	want := []string{"lib/angular/angular.js", "lib/jquery/jquery.js", "app/boot.js", "app/main.js", "vendor.js"}
	if !slices.Equal(paths, want) {
		t.Errorf("SortAssets() = %v, want %v", paths, want)
	}
}

func TestInjectBlock(t *testing.T) {
	tests := []struct {
		name  string
		page  string
		lines []string
		want  string
	}{
		{
			name:  "fills empty block with indentation",
			page:  "  <!-- inject:js --><!-- endinject -->\n",
			lines: []string{"<script src=\"a.js\"></script>"},
			want:  "  <!-- inject:js -->\n  <script src=\"a.js\"></script>\n  <!-- endinject -->\n",
		},
		{
			name:  "replaces previous content",
			page:  "<!-- inject:js -->\nold\n<!-- endinject -->",
			lines: []string{"new"},
			want:  "<!-- inject:js -->\nnew\n<!-- endinject -->",
		},
		{
			name:  "no lines empties block",
			page:  "<!-- inject:js -->old<!-- endinject -->",
			lines: nil,
			want:  "<!-- inject:js -->\n<!-- endinject -->",
		},
		{
			name:  "missing start marker",
			page:  "<body><!-- endinject --></body>",
			lines: []string{"x"},
			want:  "<body><!-- endinject --></body>",
		},
		{
			name:  "missing end marker",
			page:  "<body><!-- inject:js --></body>",
			lines: []string{"x"},
			want:  "<body><!-- inject:js --></body>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InjectBlock(tt.page, markerJS, tt.lines); got != tt.want {
				t.Errorf("InjectBlock() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestInject(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"dist/index.html":                  indexPage,
		"dist/app/main.js":                 "",
		"dist/lib/angular/angular.js":      "",
		"dist/css/main.css":                "",
		"dist/lib/bootstrap/bootstrap.css": "",
		"dist/assets/logo.png":             "",
	})

	action := NewInject(fsys, "dist", "index.html")
	if err := action(context.Background()); err != nil {
		t.Fatalf("inject error = %v", err)
	}

	page := readFile(t, fsys, "dist/index.html")
	if strings.Contains(page, "stale.js") {
		t.Error("previous injection was not replaced")
	}

	order := []string{
		`<link rel="stylesheet" href="lib/bootstrap/bootstrap.css">`,
		`<link rel="stylesheet" href="css/main.css">`,
		`<script src="lib/angular/angular.js"></script>`,
		`<script src="app/main.js"></script>`,
	}
	last := -1
	for _, tag := range order {
		idx := strings.Index(page, tag)
		if idx < 0 {
			t.Fatalf("page missing %s:\n%s", tag, page)
		}
		if idx < last {
			t.Errorf("%s is out of order", tag)
		}
		last = idx
	}
	if strings.Contains(page, "logo.png") {
		t.Error("non-script assets should not be injected")
	}

	// A second run leaves the page unchanged
	if err := action(context.Background()); err != nil {
		t.Fatalf("second inject error = %v", err)
	}
	if again := readFile(t, fsys, "dist/index.html"); again != page {
		t.Errorf("inject is not idempotent:\n%s\nvs\n%s", page, again)
	}
}

func TestInject_MissingIndex(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{"dist/app/main.js": ""})

	if err := NewInject(fsys, "dist", "index.html")(context.Background()); err == nil {
		t.Error("inject without an index page should fail")
	}
}

func TestInject_NoMarkers(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"dist/index.html":  "<html></html>",
		"dist/app/main.js": "",
	})

	if err := NewInject(fsys, "dist", "index.html")(context.Background()); err != nil {
		t.Fatalf("inject error = %v", err)
	}
	if got := readFile(t, fsys, "dist/index.html"); got != "<html></html>" {
		t.Errorf("page = %q, want unchanged", got)
	}
}

func TestInject_EscapesAttributePaths(t *testing.T) {
	fsys := afero.NewMemMapFs()
	writeFiles(t, fsys, map[string]string{
		"dist/index.html":          indexPage,
		`dist/app/a"b.js`:          "",
		"dist/css/fonts&icons.css": "",
		"dist/app/<script>.js":     "",
	})

	if err := NewInject(fsys, "dist", "index.html")(context.Background()); err != nil {
		t.Fatalf("inject error = %v", err)
	}

	page := readFile(t, fsys, "dist/index.html")
	for _, want := range []string{
		`<script src="app/a&#34;b.js"></script>`,
		`<script src="app/&lt;script&gt;.js"></script>`,
		`<link rel="stylesheet" href="css/fonts&amp;icons.css">`,
	} {
		if !strings.Contains(page, want) {
			t.Errorf("page missing %s:\n%s", want, page)
		}
	}
	if strings.Contains(page, `a"b.js`) {
		t.Error("raw quote leaked into an attribute")
	}
}
