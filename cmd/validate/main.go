// Command validate normalizes a saved NCDOT incident feed file offline and
// checks the results for internal consistency: status values, road name
// fallbacks, coordinate pairing, and ID stability. Useful when the upstream
// feed changes shape and you want to see what the normalizer makes of it
// before deploying.
//
// Usage:
//
//	go run ./cmd/validate -feed testdata/incidents.json [-v]
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/samuelramdial/cumberland-storm-status/internal/domain"
)

// phase tracks pass/fail for one validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	feedPath := flag.String("feed", "", "path to a saved incident feed JSON file")
	verbose := flag.Bool("v", false, "print every normalized closure")
	flag.Parse()

	if *feedPath == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*feedPath, *verbose); code != 0 {
		os.Exit(code)
	}
}

func run(feedPath string, verbose bool) int {
	data, err := os.ReadFile(feedPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: read feed file: %v\n", err)
		return 1
	}

	var incidents []domain.RawIncident
	if err := json.Unmarshal(data, &incidents); err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: parse feed file: %v\n", err)
		return 1
	}

	fmt.Printf("=== Feed Normalization Check: %s ===\n\n", feedPath)
	fmt.Printf("records: %d\n", len(incidents))

	closures := make([]domain.RoadClosure, 0, len(incidents))
	for _, raw := range incidents {
		closures = append(closures, domain.Normalize(raw))
	}

	phases := []*phase{
		validateStatuses(closures),
		validateRoadNames(closures),
		validateCoordinates(closures),
		validateIDStability(incidents, closures),
	}

	if verbose {
		fmt.Println()
		for _, c := range closures {
			note := ""
			if c.Note != nil {
				note = *c.Note
			}
			fmt.Printf("  %10d  %-8s  %-30s  %s\n", c.ID, c.Status, c.RoadName, note)
		}
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		if p.passed() {
			fmt.Printf("PASS  %s\n", p.name)
			continue
		}
		allPassed = false
		fmt.Printf("FAIL  %s\n", p.name)
		for _, e := range p.errors {
			fmt.Printf("      - %s\n", e)
		}
	}

	if !allPassed {
		return 1
	}

	counts := map[domain.Status]int{}
	unknownRoads, coordRoads, withCoords := 0, 0, 0
	for _, c := range closures {
		counts[c.Status]++
		if c.RoadName == "Unknown Road" {
			unknownRoads++
		} else if strings.HasPrefix(c.RoadName, "(") {
			coordRoads++
		}
		if c.Lat != nil {
			withCoords++
		}
	}
	fmt.Printf("\nOPEN=%d PARTIAL=%d CLOSED=%d\n",
		counts[domain.StatusOpen], counts[domain.StatusPartial], counts[domain.StatusClosed])
	fmt.Printf("with coordinates: %d/%d  coordinate-named: %d  unknown road: %d\n",
		withCoords, len(closures), coordRoads, unknownRoads)
	return 0
}

func validateStatuses(closures []domain.RoadClosure) *phase {
	p := &phase{name: "status values"}
	for i, c := range closures {
		if _, ok := domain.ParseStatus(string(c.Status)); !ok {
			p.errorf("record %d: status %q outside OPEN/PARTIAL/CLOSED", i, c.Status)
		}
	}
	return p
}

func validateRoadNames(closures []domain.RoadClosure) *phase {
	p := &phase{name: "road names"}
	for i, c := range closures {
		if c.RoadName == "" {
			p.errorf("record %d: empty road name", i)
		}
	}
	return p
}

func validateCoordinates(closures []domain.RoadClosure) *phase {
	p := &phase{name: "coordinate pairing"}
	for i, c := range closures {
		if (c.Lat == nil) != (c.Lng == nil) {
			p.errorf("record %d: lat/lng must be both set or both nil", i)
			continue
		}
		if c.Lat == nil {
			continue
		}
		if *c.Lat < -90 || *c.Lat > 90 || *c.Lng < -180 || *c.Lng > 180 {
			p.errorf("record %d: coordinates out of range (%f, %f)", i, *c.Lat, *c.Lng)
		}
	}
	return p
}

// validateIDStability re-normalizes every record and checks the IDs match, so
// records without an upstream ID keep the same synthetic ID between fetches.
func validateIDStability(incidents []domain.RawIncident, closures []domain.RoadClosure) *phase {
	p := &phase{name: "ID stability"}
	for i, raw := range incidents {
		again := domain.Normalize(raw)
		if again.ID != closures[i].ID {
			p.errorf("record %d: ID changed on re-normalize (%d vs %d)", i, closures[i].ID, again.ID)
		}
	}
	return p
}
