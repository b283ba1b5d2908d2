package cookies

import (
	"sort"
	"strings"
	"sync"
)

// Jar is a flat name -> value cookie store shared by every request that
// opts into cookie handling. Writes follow last-write-wins per name.
// Loading it at startup and flushing it back out are the caller's job.
type Jar struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewJar() *Jar {
	return &Jar{values: make(map[string]string)}
}

// Load merges the given pairs into the jar, overwriting existing names.
func (j *Jar) Load(pairs map[string]string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	for name, value := range pairs {
		j.values[name] = value
	}
}

func (j *Jar) Set(name, value string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	j.values[name] = value
}

func (j *Jar) Get(name string) (string, bool) {
	j.mu.RLock()
	defer j.mu.RUnlock()
	value, ok := j.values[name]
	return value, ok
}

func (j *Jar) Len() int {
	j.mu.RLock()
	defer j.mu.RUnlock()
	return len(j.values)
}

// Header renders the jar as a Cookie header value, names sorted so the
// output is stable.
func (j *Jar) Header() string {
	j.mu.RLock()
	defer j.mu.RUnlock()

	names := make([]string, 0, len(j.values))
	for name := range j.values {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	for i, name := range names {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(j.values[name])
	}
	return b.String()
}

// Absorb stores the name=value part of each Set-Cookie header value,
// ignoring attributes after the first semicolon. Entries without an
// equals sign are skipped. Returns how many cookies were stored.
func (j *Jar) Absorb(setCookies []string) int {
	if len(setCookies) == 0 {
		return 0
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	stored := 0
	for _, raw := range setCookies {
		pair, _, _ := strings.Cut(raw, ";")
		name, value, ok := strings.Cut(pair, "=")
		name = strings.TrimSpace(name)
		if !ok || name == "" {
			continue
		}
		j.values[name] = strings.TrimSpace(value)
		stored++
	}
	return stored
}

// Snapshot copies the jar contents for persistence by the caller.
func (j *Jar) Snapshot() map[string]string {
	j.mu.RLock()
	defer j.mu.RUnlock()

	out := make(map[string]string, len(j.values))
	for name, value := range j.values {
		out[name] = value
	}
	return out
}
