// Package skills holds the canonical skill taxonomy used for matching free text.
package skills

import (
	"slices"
	"strings"
)

const (
	CoreWeight   = 1.0
	StrongWeight = 0.6
	BonusWeight  = 0.3
	OtherWeight  = 0.1
)

type Skill struct {
	Name     string
	Variants []string
}

// Taxonomy is ordered; extraction walks it front to back.
var Taxonomy = []Skill{
	{Name: ".NET", Variants: []string{".net", "dotnet", ".net core", ".net framework", "asp.net", "asp.net core", ".net 6", ".net 7", ".net 8"}},
	{Name: "C#", Variants: []string{"c#", "csharp", "c sharp"}},
	{Name: "Angular", Variants: []string{"angular", "angular 2+", "angular 12", "angular 13", "angular 14", "angular 15", "angular 16", "angular 17", "angular 18", "angular 19", "angular 20", "angular 21"}},
	{Name: "TypeScript", Variants: []string{"typescript", "ts"}},
	{Name: "JavaScript", Variants: []string{"javascript", "js", "es6", "ecmascript"}},
	{Name: "SQL Server", Variants: []string{"sql server", "mssql", "ms sql", "t-sql", "tsql", "sql", "transact-sql"}},
	{Name: "Azure", Variants: []string{"azure", "microsoft azure", "azure cloud", "azure devops"}},
	{Name: "Azure DevOps", Variants: []string{"azure devops", "ado", "tfs", "vsts"}},
	{Name: "REST API", Variants: []string{"rest", "restful", "rest api", "web api", "minimal api"}},
	{Name: "Entity Framework", Variants: []string{"entity framework", "ef core", "ef", "entity framework core"}},
	{Name: "Git", Variants: []string{"git", "github", "gitlab", "bitbucket"}},
	{Name: "Docker", Variants: []string{"docker", "containers", "containerization"}},
	{Name: "Kubernetes", Variants: []string{"kubernetes", "k8s", "aks"}},
	{Name: "CI/CD", Variants: []string{"ci/cd", "ci cd", "continuous integration", "continuous delivery", "continuous deployment", "pipelines"}},
	{Name: "Agile", Variants: []string{"agile", "scrum", "kanban", "sprint"}},
	{Name: "React", Variants: []string{"react", "reactjs", "react.js"}},
	{Name: "Node.js", Variants: []string{"node", "node.js", "nodejs"}},
	{Name: "Python", Variants: []string{"python"}},
	{Name: "AWS", Variants: []string{"aws", "amazon web services"}},
	{Name: "Microservices", Variants: []string{"microservices", "micro-services", "microservice architecture"}},
	{Name: "RabbitMQ", Variants: []string{"rabbitmq", "rabbit mq"}},
	{Name: "Redis", Variants: []string{"redis"}},
	{Name: "SignalR", Variants: []string{"signalr"}},
	{Name: "Blazor", Variants: []string{"blazor", "blazor server", "blazor wasm"}},
	{Name: "LINQ", Variants: []string{"linq"}},
	{Name: "HTML/CSS", Variants: []string{"html", "css", "html5", "css3", "sass", "scss"}},
}

var (
	Core   = []string{".NET", "C#", "Angular", "TypeScript", "SQL Server", "Azure"}
	Strong = []string{"REST API", "Entity Framework", "Git", "CI/CD", "Agile", "JavaScript", "HTML/CSS", "Docker", "Azure DevOps"}
	Bonus  = []string{"Microservices", "RabbitMQ", "Redis", "SignalR", "Blazor", "Kubernetes", "React", "Node.js", "Python", "AWS", "LINQ"}
)

// Extract returns the canonical names of every skill with a variant that
// appears in text, case-insensitively, sorted by name.
func Extract(text string) []string {
	lower := strings.ToLower(text)

	var found []string
	for _, skill := range Taxonomy {
		for _, variant := range skill.Variants {
			if strings.Contains(lower, variant) {
				found = append(found, skill.Name)
				break
			}
		}
	}

	slices.Sort(found)
	return found
}

// Normalize maps a raw skill name or any of its variants to the canonical name.
func Normalize(raw string) (string, bool) {
	trimmed := strings.TrimSpace(raw)
	for _, skill := range Taxonomy {
		if strings.EqualFold(skill.Name, trimmed) {
			return skill.Name, true
		}
		for _, variant := range skill.Variants {
			if strings.EqualFold(variant, trimmed) {
				return skill.Name, true
			}
		}
	}
	return "", false
}

// Matches reports whether text mentions the named skill. Unknown names are
// matched as a plain case-insensitive substring.
func Matches(name, text string) bool {
	lower := strings.ToLower(text)
	if canonical, ok := Normalize(name); ok {
		for _, skill := range Taxonomy {
			if skill.Name != canonical {
				continue
			}
			for _, variant := range skill.Variants {
				if strings.Contains(lower, variant) {
					return true
				}
			}
			return false
		}
	}

	needle := strings.ToLower(strings.TrimSpace(name))
	return needle != "" && strings.Contains(lower, needle)
}

func Weight(name string) float64 {
	switch {
	case slices.Contains(Core, name):
		return CoreWeight
	case slices.Contains(Strong, name):
		return StrongWeight
	case slices.Contains(Bonus, name):
		return BonusWeight
	default:
		return OtherWeight
	}
}
