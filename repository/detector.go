package repository

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/viant/afs"
	"golang.org/x/mod/modfile"
)

// ecosystem markers checked in each candidate root directory. C# has no
// fixed manifest name, so it is detected by extension listing instead.
var ecosystemMarkers = map[string][]string{
	"typescript": {"package.json", "tsconfig.json"},
	"python":     {"pyproject.toml", "requirements.txt", "setup.py"},
	"java":       {"pom.xml", "build.gradle", "build.gradle.kts"},
	"php":        {"composer.json"},
	"go":         {"go.mod"},
}

// Detector identifies project roots and the ecosystems they use
type Detector struct {
	fs afs.Service
}

// New creates a project detector
func New() *Detector {
	return &Detector{fs: afs.New()}
}

// DetectProject walks up from the given path until a directory carries at
// least one ecosystem marker or a .git directory, and reports every
// ecosystem found at that root
func (d *Detector) DetectProject(path string) (*Project, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	startDir := absPath
	if info, err := os.Stat(absPath); err != nil {
		return nil, err
	} else if !info.IsDir() {
		startDir = filepath.Dir(absPath)
	}

	root, types := d.findRoot(startDir)
	project := &Project{RootPath: absPath}
	if root != "" {
		project.RootPath = root
		project.Types = types
	}

	if rel, err := filepath.Rel(project.RootPath, absPath); err == nil {
		project.RelativePath = filepath.ToSlash(rel)
	} else {
		project.RelativePath = filepath.Base(absPath)
	}
	project.Name = d.projectName(project.RootPath, types)
	return project, nil
}

// DetectRepository identifies the repository containing the given path,
// preferring a git root over bare ecosystem markers
func (d *Detector) DetectRepository(path string) (*Repository, error) {
	project, err := d.DetectProject(path)
	if err != nil {
		return nil, err
	}

	if gitRoot := findGitRoot(project.RootPath); gitRoot != "" {
		return &Repository{
			Kind:    "git",
			Root:    gitRoot,
			Origin:  gitOrigin(gitRoot),
			Project: project,
		}, nil
	}

	kind := "unknown"
	if len(project.Types) > 0 {
		kind = project.Types[0]
	}
	return &Repository{Kind: kind, Root: project.RootPath, Project: project}, nil
}

// findRoot searches up the directory tree for the first directory with any
// ecosystem marker, collecting all ecosystems present there
func (d *Detector) findRoot(startDir string) (string, []string) {
	for dir := startDir; ; {
		var types []string
		for ecosystem, markers := range ecosystemMarkers {
			for _, marker := range markers {
				if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
					types = append(types, ecosystem)
					break
				}
			}
		}
		if hasCSharpProject(dir) {
			types = append(types, "csharp")
		}
		if len(types) > 0 {
			sort.Strings(types)
			return dir, types
		}
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// hasCSharpProject reports whether a directory directly contains a solution
// or C# project file
func hasCSharpProject(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch filepath.Ext(entry.Name()) {
		case ".sln", ".csproj":
			return true
		}
	}
	return false
}

// projectName extracts a display name from the first ecosystem manifest that
// carries one, falling back to the root directory name
func (d *Detector) projectName(root string, types []string) string {
	for _, ecosystem := range types {
		name := ""
		switch ecosystem {
		case "typescript":
			name = d.jsonName(filepath.Join(root, "package.json"))
		case "python":
			name = d.pythonName(root)
		case "java":
			name = d.mavenName(filepath.Join(root, "pom.xml"))
		case "php":
			name = d.jsonName(filepath.Join(root, "composer.json"))
		case "csharp":
			name = csharpProjectName(root)
		case "go":
			name = d.goModuleName(filepath.Join(root, "go.mod"))
		}
		if name != "" {
			return name
		}
	}
	return filepath.Base(root)
}

var (
	jsonNameRe   = regexp.MustCompile(`"name"\s*:\s*"([^"]+)"`)
	pyNameRe     = regexp.MustCompile(`(?m)^name\s*=\s*["']([^"']+)["']`)
	setupNameRe  = regexp.MustCompile(`name\s*=\s*["']([^"']+)["']`)
	artifactIDRe = regexp.MustCompile(`<artifactId>([^<]+)</artifactId>`)
)

func (d *Detector) jsonName(path string) string {
	if m := jsonNameRe.FindSubmatch(d.read(path)); len(m) == 2 {
		return string(m[1])
	}
	return ""
}

func (d *Detector) pythonName(root string) string {
	if m := pyNameRe.FindSubmatch(d.read(filepath.Join(root, "pyproject.toml"))); len(m) == 2 {
		return string(m[1])
	}
	if m := setupNameRe.FindSubmatch(d.read(filepath.Join(root, "setup.py"))); len(m) == 2 {
		return string(m[1])
	}
	return ""
}

func (d *Detector) mavenName(path string) string {
	if m := artifactIDRe.FindSubmatch(d.read(path)); len(m) == 2 {
		return string(m[1])
	}
	return ""
}

func csharpProjectName(root string) string {
	entries, err := os.ReadDir(root)
	if err != nil {
		return ""
	}
	for _, entry := range entries {
		if ext := filepath.Ext(entry.Name()); ext == ".sln" || ext == ".csproj" {
			return strings.TrimSuffix(entry.Name(), ext)
		}
	}
	return ""
}

func (d *Detector) goModuleName(path string) string {
	content := d.read(path)
	if len(content) == 0 {
		return ""
	}
	if mod, _ := modfile.Parse(path, content, nil); mod != nil && mod.Module != nil {
		return mod.Module.Mod.Path
	}
	return ""
}

func (d *Detector) read(path string) []byte {
	content, _ := d.fs.DownloadWithURL(context.Background(), path)
	return content
}

// findGitRoot finds the root of the git repository containing the directory
func findGitRoot(startDir string) string {
	for dir := startDir; ; {
		if _, err := os.Stat(filepath.Join(dir, ".git")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// gitOrigin extracts the origin remote URL from .git/config
func gitOrigin(gitRoot string) string {
	file, err := os.Open(filepath.Join(gitRoot, ".git", "config"))
	if err != nil {
		return ""
	}
	defer file.Close()

	scanner := bufio.NewScanner(file)
	inOrigin := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if strings.HasPrefix(line, "[") {
			inOrigin = strings.Contains(line, `[remote "origin"]`)
			continue
		}
		if inOrigin && strings.HasPrefix(line, "url = ") {
			return strings.TrimPrefix(line, "url = ")
		}
	}
	return ""
}
