package eventr

import (
	"strconv"

	"github.com/brianvoe/gofakeit/v7"
)

// relation describes one kind of captured attribute and how to fake it.
type relation struct {
	Name     string
	Type     string
	Category string
	Value    func() string
}

var relations = map[string]relation{
	"ip-src":      {"ip-src", "ip-src", "Network activity", gofakeit.IPv4Address},
	"domain":      {"domain", "domain", "Network activity", gofakeit.DomainName},
	"mac-address": {"mac-address", "mac-address", "Network activity", gofakeit.MacAddress},
	"user-agent":  {"user-agent", "user-agent", "Network activity", gofakeit.UserAgent},
	"email":       {"email", "email-src", "Payload delivery", gofakeit.Email},
	"username":    {"username", "text", "Other", gofakeit.Username},
	"first-name":  {"first-name", "first-name", "Person", gofakeit.FirstName},
	"last-name":   {"last-name", "last-name", "Person", gofakeit.LastName},
	"city":        {"city", "text", "Other", gofakeit.City},
	"zip":         {"zip", "text", "Other", gofakeit.Zip},
	"age": {"age", "text", "Person", func() string {
		return strconv.Itoa(gofakeit.Number(18, 90))
	}},
}

// flatRelations is the order attributes are drawn from in flat events.
var flatRelations = []string{
	"ip-src", "domain", "email", "username", "user-agent",
	"first-name", "last-name", "age", "zip", "city", "mac-address",
}

// templates lists the object templates of nested events.
var templates = []struct {
	Name      string
	Relations []string
}{
	{"person", []string{"first-name", "last-name", "age", "zip", "city"}},
	{"network-connection", []string{"ip-src", "domain", "mac-address"}},
	{"user-account", []string{"username", "email", "user-agent"}},
}

// Relations returns the relation names used in flat events.
func Relations() []string {
	out := make([]string, len(flatRelations))
	copy(out, flatRelations)
	return out
}

// Templates returns the object template names used in nested events.
func Templates() []string {
	out := make([]string, 0, len(templates))
	for _, t := range templates {
		out = append(out, t.Name)
	}
	return out
}
