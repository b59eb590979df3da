package extractor

import (
	"regexp"
	"strings"

	"github.com/Abraxas-365/hireflow/pkg/kernel"
)

// DefaultSkills is the built-in vocabulary. Single letters and "Go" are left
// out because they collide with ordinary English words; "Golang" covers Go.
var DefaultSkills = []string{
	// languages
	"Python", "Java", "JavaScript", "TypeScript", "Golang", "Rust", "C++", "C#",
	"Ruby", "PHP", "Kotlin", "Swift", "Scala", "Elixir", "Haskell", "Perl",
	"Objective-C", "Dart", "Lua", "Bash", "SQL",
	// frontend
	"React", "React Native", "Angular", "Vue.js", "Next.js", "Svelte", "Redux",
	"HTML", "CSS", "Tailwind CSS", "jQuery",
	// backend
	"Node.js", "Express.js", "Django", "Flask", "FastAPI", "Spring Boot", "Rails",
	"Laravel", ".NET", "ASP.NET", "GraphQL", "gRPC", "RESTful APIs",
	// data
	"PostgreSQL", "MySQL", "MongoDB", "Redis", "Elasticsearch", "Cassandra",
	"DynamoDB", "SQLite", "Kafka", "RabbitMQ", "Spark", "Hadoop", "Airflow",
	"Snowflake", "BigQuery", "dbt", "Pandas", "NumPy",
	// ml
	"Machine Learning", "Deep Learning", "TensorFlow", "PyTorch", "scikit-learn",
	"NLP", "Computer Vision", "LLM",
	// cloud & ops
	"AWS", "Azure", "GCP", "Google Cloud", "Docker", "Kubernetes", "Terraform",
	"Ansible", "Jenkins", "GitHub Actions", "CI/CD", "Linux", "Prometheus",
	"Grafana", "Nginx", "Microservices", "Git",
	// practice
	"Agile", "Scrum", "TDD", "Figma",
}

type skillMatcher struct {
	name string
	re   *regexp.Regexp
}

// vocabulary matches known skills as whole words. "+", "#" and word
// characters are part of a token, so "Java" never matches "JavaScript" and
// "C" never matches "C++".
type vocabulary struct {
	matchers []skillMatcher
	index    map[string]string
}

func newVocabulary(skills []string) (*vocabulary, error) {
	skills = kernel.UniqueSkills(skills)
	v := &vocabulary{
		matchers: make([]skillMatcher, 0, len(skills)),
		index:    make(map[string]string, len(skills)),
	}
	for _, s := range skills {
		re, err := regexp.Compile(skillPattern(s))
		if err != nil {
			return nil, err
		}
		v.matchers = append(v.matchers, skillMatcher{name: s, re: re})
		v.index[kernel.SkillKey(s)] = s
	}
	return v, nil
}

func skillPattern(skill string) string {
	words := strings.Fields(skill)
	for i, w := range words {
		words[i] = regexp.QuoteMeta(w)
	}
	return `(?i)(?:^|[^\w+#])` + strings.Join(words, `\s+`) + `(?:$|[^\w+#])`
}

// find returns the canonical names of every skill present in text.
func (v *vocabulary) find(text string) []string {
	found := make([]string, 0, 8)
	for _, m := range v.matchers {
		if m.re.MatchString(text) {
			found = append(found, m.name)
		}
	}
	return kernel.SortedSkills(found)
}

// Canonical returns the vocabulary spelling of skill, if known.
func (v *vocabulary) canonical(skill string) (string, bool) {
	name, ok := v.index[kernel.SkillKey(skill)]
	return name, ok
}
