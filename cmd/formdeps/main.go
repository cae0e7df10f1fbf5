package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/davecgh/go-spew/spew"

	"github.com/goliatone/go-formdeps/pkg/definition"
	"github.com/goliatone/go-formdeps/pkg/dependency"
	"github.com/goliatone/go-formdeps/pkg/form"
	"github.com/goliatone/go-formdeps/pkg/prompt"
	"github.com/goliatone/go-formdeps/pkg/schema"
)

type report struct {
	Form       string         `json:"form"`
	Active     []string       `json:"active"`
	Inactive   []string       `json:"inactive"`
	Values     map[string]any `json:"values"`
	Dirty      []string       `json:"dirty,omitempty"`
	Passes     int            `json:"passes"`
	Validation schema.Result  `json:"validation"`
}

func main() {
	definitions := flag.String("definitions", "forms", "directory containing form definitions")
	source := flag.String("source", "", "single definition file or URL (overrides -definitions)")
	formID := flag.String("form", "", "form id to evaluate (lists available forms if empty)")
	valuesPath := flag.String("values", "", "JSON file with the values snapshot")
	interactive := flag.Bool("interactive", false, "prompt for every active field")
	debug := flag.Bool("debug", false, "log rule evaluations and dump the final state")
	output := flag.String("output", "", "output file (stdout if empty)")
	flag.Parse()

	ctx := context.Background()

	var def definition.Definition
	if *source != "" {
		src, err := definition.ParseSource(*source)
		if err != nil {
			log.Fatalf("Invalid source: %v", err)
		}
		loader := definition.NewLoader(definition.WithHTTPFallback(10 * time.Second))
		if def, err = loader.Load(ctx, src); err != nil {
			log.Fatalf("Failed to load definition: %v", err)
		}
	} else {
		store, err := definition.LoadFS(os.DirFS(*definitions))
		if err != nil {
			log.Fatalf("Failed to load definitions: %v", err)
		}
		if *formID == "" {
			for _, id := range store.IDs() {
				fmt.Println(id)
			}
			return
		}
		var ok bool
		if def, ok = store.Definition(*formID); !ok {
			log.Fatalf("Unknown form %q (available: %v)", *formID, store.IDs())
		}
	}

	values, err := readValues(*valuesPath)
	if err != nil {
		log.Fatalf("Failed to read values: %v", err)
	}

	engines, err := definition.Engines()
	if err != nil {
		log.Fatalf("Failed to set up expression engines: %v", err)
	}
	var ruleOpts []dependency.Option
	if *debug {
		ruleOpts = append(ruleOpts, dependency.WithLogger(dependency.LoggerFunc(func(event dependency.EvaluationEvent) {
			log.Printf("pass=%d rule=%s watch=%s field=%s matched=%t took=%s err=%v",
				event.Pass, event.Rule, event.Watch, event.Field, event.Matched, event.Duration, event.Err)
		})))
	}
	rules, err := def.RuleSet(engines, ruleOpts...)
	if err != nil {
		log.Fatalf("Failed to compile rules: %v", err)
	}

	f, err := form.New(rules,
		form.WithSchema(def.Schema),
		form.WithDefaults(def.Defaults),
		form.WithValues(values),
		form.WithValidateMode(def.ValidateMode),
		form.WithSanitizer(form.StrictSanitizer()),
	)
	if err != nil {
		log.Fatalf("Failed to evaluate form: %v", err)
	}

	if *interactive {
		session := prompt.NewSession(prompt.NewSurveyDriver(), def.Schema)
		if err := session.Fill(ctx, f, promptFields(def)); err != nil {
			if errors.Is(err, prompt.ErrAborted) {
				log.Fatalf("Aborted")
			}
			log.Fatalf("Failed to fill form: %v", err)
		}
	}

	state := f.State()
	out := report{
		Form:       def.ID,
		Active:     state.Active.Strings(),
		Inactive:   state.Inactive.Strings(),
		Values:     state.Values,
		Dirty:      f.DirtyFields(),
		Passes:     state.Passes,
		Validation: f.Validate(),
	}
	if *debug {
		spew.Fdump(os.Stderr, state)
	}

	payload, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		log.Fatalf("Failed to encode result: %v", err)
	}
	if *output != "" {
		if err := os.WriteFile(*output, payload, 0o644); err != nil {
			log.Fatalf("Failed to write output: %v", err)
		}
		fmt.Printf("Result written to %s\n", *output)
		return
	}
	fmt.Println(string(payload))
}

func readValues(path string) (map[string]any, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var values map[string]any
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return values, nil
}

// promptFields falls back to the schema's leaf fields when the definition
// does not list any.
func promptFields(def definition.Definition) []definition.Field {
	if len(def.Fields) > 0 {
		return def.Fields
	}
	var out []definition.Field
	for _, p := range def.Schema.Fields() {
		out = append(out, definition.Field{Path: p.String()})
	}
	return out
}
