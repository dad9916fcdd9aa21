// cmd/tools/artifact-tool/main.go
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"house-price-api/internal/features"
	"house-price-api/internal/model"
	"house-price-api/pkg/registry"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var errUsage = errors.New("usage")

func run(args []string, out io.Writer) error {
	if len(args) < 1 {
		help(out)
		return errUsage
	}

	switch args[0] {
	case "validate":
		fs := flag.NewFlagSet("validate", flag.ContinueOnError)
		path := fs.String("path", "house_price_model.json", "Path to model artifact")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return validateArtifact(*path, out)

	case "inspect":
		fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
		path := fs.String("path", "house_price_model.json", "Path to model artifact")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		return inspectArtifact(*path, out)

	case "predict":
		fs := flag.NewFlagSet("predict", flag.ContinueOnError)
		path := fs.String("path", "house_price_model.json", "Path to model artifact")
		input := fs.String("input", "", "Feature record as a JSON object")
		strict := fs.Bool("strict", false, "Reject records with missing fields")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *input == "" {
			return errors.New("-input is required for predict")
		}
		return predict(*path, *input, *strict, out)

	case "set":
		fs := flag.NewFlagSet("set", flag.ContinueOnError)
		path := fs.String("path", "house_price_model.json", "Path to model artifact")
		field := fs.String("field", "", "Field to update (name, version, description)")
		value := fs.String("value", "", "New value for the field")
		if err := fs.Parse(args[1:]); err != nil {
			return err
		}
		if *field == "" || *value == "" {
			return errors.New("field and value are required for set")
		}
		if err := setField(*path, *field, *value); err != nil {
			return err
		}
		fmt.Fprintf(out, "Updated %s to %s\n", *field, *value)
		return nil

	case "help":
		help(out)
		return nil
	default:
		help(out)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

// validateArtifact applies the same checks the server does at startup.
func validateArtifact(path string, out io.Writer) error {
	a, err := registry.LoadArtifact(path)
	if err != nil {
		return fmt.Errorf("failed to load artifact: %w", err)
	}
	if _, err := model.FromArtifact(a, features.HousePrice); err != nil {
		return fmt.Errorf("artifact is not servable: %w", err)
	}
	fmt.Fprintf(out, "Artifact validation passed. %s model with %d features.\n", a.ModelType, features.HousePrice.Len())
	return nil
}

func inspectArtifact(path string, out io.Writer) error {
	a, err := registry.LoadArtifact(path)
	if err != nil {
		return fmt.Errorf("failed to load artifact: %w", err)
	}

	fmt.Fprintf(out, "Name:        %s\n", a.Name)
	fmt.Fprintf(out, "Version:     %s\n", a.Version)
	fmt.Fprintf(out, "Created:     %s\n", a.CreatedAt)
	fmt.Fprintf(out, "Model type:  %s\n", a.ModelType)
	if a.Description != "" {
		fmt.Fprintf(out, "Description: %s\n", a.Description)
	}
	if a.Metrics != (registry.TrainMetrics{}) {
		fmt.Fprintf(out, "Metrics:     r2=%.4f rmse=%.2f mae=%.2f\n", a.Metrics.R2, a.Metrics.RMSE, a.Metrics.MAE)
	}

	switch {
	case a.Linear != nil:
		fmt.Fprintf(out, "Bias:        %g\n", a.Linear.Bias)
		names := a.FeatureNames
		if len(names) == 0 {
			names = features.HousePrice.Names
		}
		for i, w := range a.Linear.Weights {
			name := fmt.Sprintf("x%d", i)
			if i < len(names) {
				name = names[i]
			}
			fmt.Fprintf(out, "  %-18s %g\n", name, w)
		}
	case len(a.Trees) > 0:
		nodes := 0
		for _, t := range a.Trees {
			nodes += len(t)
		}
		fmt.Fprintf(out, "Trees:       %d (%d nodes)\n", len(a.Trees), nodes)
	}
	return nil
}

func predict(path, input string, strict bool, out io.Writer) error {
	h := model.Load("", path, features.HousePrice)
	if !h.Ready() {
		return fmt.Errorf("model failed to load: %w", h.Err())
	}

	dec := json.NewDecoder(strings.NewReader(input))
	dec.UseNumber()
	var record features.Record
	if err := dec.Decode(&record); err != nil {
		return fmt.Errorf("input is not a JSON object: %w", err)
	}

	policy := features.DefaultZero
	if strict {
		policy = features.Strict
	}
	asm := features.NewAssembler(features.HousePrice, policy)
	vec, err := asm.Assemble(record)
	if err != nil {
		return err
	}
	if missing := asm.Missing(record); len(missing) > 0 {
		fmt.Fprintf(out, "Defaulted to 0: %s\n", strings.Join(missing, ", "))
	}

	price, err := h.Predict(context.Background(), vec)
	if err != nil {
		return err
	}
	return json.NewEncoder(out).Encode(map[string]float64{"predicted_price": price})
}

func setField(path, field, value string) error {
	a, err := registry.LoadArtifact(path)
	if err != nil {
		return fmt.Errorf("failed to load artifact: %w", err)
	}
	switch field {
	case "name":
		a.Name = value
	case "version":
		a.Version = value
	case "description":
		a.Description = value
	default:
		return fmt.Errorf("unknown field: %s", field)
	}
	a.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	return registry.SaveArtifact(path, a)
}

func help(out io.Writer) {
	fmt.Fprintln(out, `
Usage: artifact-tool <command> [flags]

Commands:
  validate  Check an artifact loads and matches the feature schema
  inspect   Print artifact metadata and parameters
  predict   Run one offline prediction
  set       Update an artifact's name, version or description
  help      Show this help message

Examples:
  artifact-tool validate -path house_price_model.json
  artifact-tool inspect -path house_price_model.json
  artifact-tool predict -path house_price_model.json -input '{"Area": 2500, "Bedrooms": 4}'
  artifact-tool set -path house_price_model.json -field version -value 1.1.0

Use 'artifact-tool <command> -h' for more information about a command.`)
}
