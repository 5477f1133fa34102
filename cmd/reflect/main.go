package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/wippyai/reflect-runtime/env"
	"github.com/wippyai/reflect-runtime/image"
	"github.com/wippyai/reflect-runtime/runtime"
	"github.com/wippyai/reflect-runtime/witenv"
)

func main() {
	var (
		imageFile   = flag.String("image", "", "Path to a YAML metadata image")
		witFile     = flag.String("wit", "", "Path to a WIT package set in JSON form")
		configFile  = flag.String("config", "", "Path to reflect.toml (default ./reflect.toml if present)")
		typeName    = flag.String("type", "", "Describe a single type by full name")
		all         = flag.Bool("all", false, "Include System types in the type listing")
		handles     = flag.Bool("handles", false, "Resolve every handle in the image")
		refSpec     = flag.String("ref", "", "Typed reference to compute, as Type:field.field")
		cctor       = flag.String("cctor", "", "Run the class constructor of a type")
		interactive = flag.Bool("i", false, "Interactive type browser")
	)
	flag.Parse()

	if (*imageFile == "") == (*witFile == "") {
		fmt.Fprintln(os.Stderr, "Usage: reflect -image <file.yaml> [-type name] [-handles] [-ref Type:field.field]")
		fmt.Fprintln(os.Stderr, "       reflect -wit <file.json> [-type name]")
		fmt.Fprintln(os.Stderr, "       reflect -image <file.yaml> -i  (interactive mode)")
		os.Exit(1)
	}

	cfg, err := loadConfig(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	logger, err := newLogger(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	s, err := load(cfg, *imageFile, *witFile)
	if err != nil {
		logger.Error("load failed", zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if *interactive {
		if !term.IsTerminal(int(os.Stdout.Fd())) {
			fmt.Fprintln(os.Stderr, "Error: interactive mode needs a terminal")
			os.Exit(1)
		}
		if err := runInteractive(s); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := run(s, *typeName, *all, *handles, *refSpec, *cctor); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func load(cfg *Config, imageFile, witFile string) (*session, error) {
	s := &session{}
	if imageFile != "" {
		img, err := image.LoadFile(imageFile)
		if err != nil {
			return nil, err
		}
		s.mem = img.Env
		s.methodHandles = img.MethodHandles
		s.fieldHandles = img.FieldHandles
		s.source = imageFile
	} else {
		f, err := os.Open(witFile)
		if err != nil {
			return nil, fmt.Errorf("read file: %w", err)
		}
		defer f.Close()

		res, err := witenv.DecodeJSON(f)
		if err != nil {
			return nil, err
		}
		b := env.NewBuilder()
		if _, err := witenv.New(b, cfg.WIT.Namespace).ImportResolve(res); err != nil {
			return nil, err
		}
		if s.mem, err = b.Build(); err != nil {
			return nil, err
		}
		s.source = witFile
	}
	s.rt = runtime.New(s.mem, cfg.RuntimeOptions())
	return s, nil
}

func run(s *session, typeName string, all, handles bool, refSpec, cctor string) error {
	if typeName != "" {
		t, ok := s.mem.LookupType(typeName)
		if !ok {
			return fmt.Errorf("type %q not found", typeName)
		}
		printLines(s.describe(t))
		return nil
	}

	if cctor != "" {
		t, ok := s.mem.LookupType(cctor)
		if !ok {
			return fmt.Errorf("type %q not found", cctor)
		}
		if err := s.rt.RunClassConstructor(t); err != nil {
			return fmt.Errorf("class constructor of %s: %w", cctor, err)
		}
		fmt.Printf("Class constructor of %s has run\n", cctor)
		return nil
	}

	if refSpec != "" {
		r, fields, err := s.typedRef(refSpec)
		if err != nil {
			return err
		}
		var chain []string
		for _, f := range fields {
			chain = append(chain, fmt.Sprintf("%s@%d", f.Name(), f.Offset()))
		}
		fmt.Printf("%s -> %s at offset %d (%s)\n", refSpec, r.Type.FullName(), r.Offset, strings.Join(chain, " + "))
		return nil
	}

	fmt.Printf("Source: %s\n\n", s.source)
	for _, t := range s.userTypes(all) {
		printLines(s.describe(t))
		fmt.Println()
	}
	if handles {
		printLines(s.describeHandles())
	}
	return nil
}

func printLines(lines []string) {
	for _, l := range lines {
		fmt.Println(l)
	}
}
