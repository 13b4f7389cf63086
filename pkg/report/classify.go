package report

import (
	"path/filepath"
	"strings"
)

// Application describes a multi-process program whose processes are worth
// telling apart. Match entries are compared case-insensitively against the
// start of the process name.
type Application struct {
	Name  string   `yaml:"name"`
	Match []string `yaml:"match"`
}

// DefaultApplications covers Chromium-based browsers and Electron apps, which
// all mark their helper processes with --type=<role>.
func DefaultApplications() []Application {
	return []Application{
		{Name: "chrome", Match: []string{"chrome", "google-chrome", "chromium"}},
		{Name: "edge", Match: []string{"msedge", "microsoft-edge"}},
		{Name: "brave", Match: []string{"brave"}},
		{Name: "electron", Match: []string{"electron", "code", "slack", "discord"}},
	}
}

// Candidate is the subset of a process the classifier looks at.
type Candidate struct {
	PID     int32
	PPID    int32
	Name    string
	Cmdline []string
}

// Population indexes one enumeration pass so parent/child questions are cheap.
type Population struct {
	names    map[int32]string
	children map[int32][]int32
}

// NewPopulation indexes candidates by pid and parent.
func NewPopulation(candidates []Candidate) *Population {
	pop := &Population{
		names:    make(map[int32]string, len(candidates)),
		children: make(map[int32][]int32),
	}
	for _, c := range candidates {
		pop.names[c.PID] = c.Name
		if c.PPID > 0 && c.PPID != c.PID {
			pop.children[c.PPID] = append(pop.children[c.PPID], c.PID)
		}
	}
	return pop
}

// HasChildNamed reports whether pid has a direct child called name.
func (p *Population) HasChildNamed(pid int32, name string) bool {
	if p == nil {
		return false
	}
	for _, child := range p.children[pid] {
		if p.names[child] == name {
			return true
		}
	}
	return false
}

// Classifier attaches a descriptive tag to a process. An empty result means
// the process is not interesting to classify. Implementations must not fail.
type Classifier interface {
	Classify(c Candidate, pop *Population) string
}

// RoleClassifier labels helper processes of multi-process applications by the
// role marker on their command line.
type RoleClassifier struct {
	apps []Application
}

// NewRoleClassifier builds a classifier; nil or empty apps uses DefaultApplications.
func NewRoleClassifier(apps []Application) *RoleClassifier {
	if len(apps) == 0 {
		apps = DefaultApplications()
	}
	return &RoleClassifier{apps: apps}
}

// Classify implements Classifier.
func (r *RoleClassifier) Classify(c Candidate, pop *Population) string {
	app, ok := r.application(c.Name)
	if !ok {
		return ""
	}
	if role := roleFromArgs(c.Cmdline); role != "" {
		return app + " " + role
	}
	if pop.HasChildNamed(c.PID, c.Name) {
		return app + " main instance"
	}
	return app + " process"
}

func (r *RoleClassifier) application(name string) (string, bool) {
	base := strings.ToLower(strings.TrimSuffix(filepath.Base(name), ".exe"))
	if base == "" {
		return "", false
	}
	for _, app := range r.apps {
		for _, m := range app.Match {
			if m != "" && strings.HasPrefix(base, strings.ToLower(m)) {
				return app.Name, true
			}
		}
	}
	return "", false
}

func roleFromArgs(args []string) string {
	var kind, subType string
	extension := false
	for _, arg := range args {
		switch {
		case strings.HasPrefix(arg, "--type="):
			kind = strings.TrimPrefix(arg, "--type=")
		case strings.HasPrefix(arg, "--utility-sub-type="):
			subType = strings.TrimPrefix(arg, "--utility-sub-type=")
		case arg == "--extension-process":
			extension = true
		}
	}

	switch kind {
	case "":
		return ""
	case "renderer":
		if extension {
			return "extension"
		}
		return "renderer"
	case "gpu-process":
		return "gpu"
	case "utility":
		if strings.Contains(strings.ToLower(subType), "network") {
			return "network service"
		}
		return "utility"
	case "crashpad-handler", "crash-handler":
		return "crash handler"
	default:
		return kind
	}
}
