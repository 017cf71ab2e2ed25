// MDLChef — Meme rendering from MDL documents.
//
// Usage:
//
//	mdlchef [render] -mdl <file> -o <file> [options]
//	mdlchef list [pattern]
//	mdlchef info <format>
//	mdlchef preview -o <file> <format>
//	mdlchef insert -name <name> -from x,y -to x,y <format>
//	mdlchef serve [-listen :8080]
//	mdlchef init
package main

import (
	"flag"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xob0t/mdlchef/clients/server"
	"github.com/xob0t/mdlchef/pkg/caption"
	"github.com/xob0t/mdlchef/pkg/chef"
	"github.com/xob0t/mdlchef/pkg/config"
	"github.com/xob0t/mdlchef/pkg/formats"
	"github.com/xob0t/mdlchef/pkg/generator"
	"github.com/xob0t/mdlchef/pkg/mdl"
	"github.com/xob0t/mdlchef/pkg/preview"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch os.Args[1] {
	case "render":
		err = run(os.Args[2:])
	case "list", "listmemes":
		err = runList(os.Args[2:])
	case "info", "memeinfo":
		err = runInfo(os.Args[2:])
	case "preview":
		err = runPreview(os.Args[2:])
	case "insert":
		err = runInsert(os.Args[2:])
	case "init":
		err = runInit(os.Args[2:])
	case "serve":
		err = server.RunServe(os.Args[2:])
	case "credits":
		printCredits()
	case "help", "-h", "--help":
		printUsage()
	default:
		// Default: render mode (all flags on root).
		err = run(os.Args[1:])
	}
	if err != nil {
		fatal(err)
	}
}

// setup parses args, resolves settings and installs the logger.
func setup(fs *flag.FlagSet, cf *config.Flags, args []string) (config.Config, error) {
	if err := fs.Parse(args); err != nil {
		return config.Config{}, err
	}
	cfg, err := cf.Resolve()
	if err != nil {
		return config.Config{}, err
	}
	caption.SetLogger(cfg.Logger(os.Stderr))
	return cfg, nil
}

func openRepo(cfg config.Config) (*formats.Repository, error) {
	repo, err := formats.Open(cfg.RepoFolder, cfg.RepoName)
	if err != nil {
		return nil, fmt.Errorf("load formats: %w", err)
	}
	return repo, nil
}

func run(args []string) error {
	fs := flag.NewFlagSet("mdlchef", flag.ExitOnError)
	cf := config.BindFlags(fs)

	var (
		mdlPath  string
		output   string
		formatID string
		top      string
		center   string
		bottom   string
		message  bool
	)
	inserts := make(map[string]string)

	fs.StringVar(&mdlPath, "mdl", "-", "MDL document ('-' reads stdin)")
	fs.StringVar(&output, "o", "meme.png", "Output file (.png, .bmp, .tif) or '-' for PNG on stdout")
	fs.StringVar(&output, "output", "meme.png", "Output file (.png, .bmp, .tif) or '-' for PNG on stdout")
	fs.BoolVar(&message, "message", false, "Input is a chat message; render the MDL inside it")
	fs.StringVar(&formatID, "format", "", "Format id; captions come from flags instead of MDL")
	fs.StringVar(&top, "top", "", "Top caption (with -format)")
	fs.StringVar(&center, "center", "", "Center caption (with -format)")
	fs.StringVar(&bottom, "bottom", "", "Bottom caption (with -format)")
	fs.Func("insert", "Insert caption as name=text, repeatable (with -format)", func(v string) error {
		name, text, ok := strings.Cut(v, "=")
		if !ok || name == "" {
			return fmt.Errorf("want name=text, got %q", v)
		}
		inserts[name] = text
		return nil
	})

	fs.Usage = printUsage
	cfg, err := setup(fs, cf, args)
	if err != nil {
		return err
	}

	// Build the request before touching the repository so MDL errors are
	// reported without indexing anything.
	var req caption.Request
	if formatID != "" {
		req = caption.Request{FormatID: formatID, Top: top, Center: center, Bottom: bottom}
		if len(inserts) > 0 {
			req.Inserts = inserts
		}
	} else {
		src, err := readInput(mdlPath)
		if err != nil {
			return err
		}
		if message {
			extracted, ok := mdl.Extract(src)
			if !ok {
				return fmt.Errorf("no MDL found in message")
			}
			src = extracted
		}
		m, err := mdl.ParseAndValidate(src)
		if err != nil {
			return err
		}
		req = m.Request()
	}

	svc, repo, err := chef.Open(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	format, err := repo.Get(req.FormatID)
	if err != nil {
		return err
	}
	img, err := svc.RenderImage(req, format)
	if err != nil {
		return err
	}

	if output == "-" {
		return generator.GenerateToWriter(os.Stdout, ".png", img)
	}
	if err := generator.Generate(output, img); err != nil {
		return err
	}
	fmt.Printf("Done: %s\n", output)
	return nil
}

func readInput(path string) (string, error) {
	var (
		data []byte
		err  error
	)
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("read MDL: %w", err)
	}
	return string(data), nil
}

func runList(args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	cf := config.BindFlags(fs)
	cfg, err := setup(fs, cf, args)
	if err != nil {
		return err
	}

	repo, err := openRepo(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	list, err := repo.List(fs.Arg(0))
	if err != nil {
		return err
	}
	if len(list) == 0 {
		fmt.Println("No formats match.")
		return nil
	}
	for _, f := range list {
		fmt.Println(formats.ListLine(f))
	}
	return nil
}

func runInfo(args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	cf := config.BindFlags(fs)
	cfg, err := setup(fs, cf, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("info needs exactly one format id")
	}

	repo, err := openRepo(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	f, err := repo.Get(fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Print(formats.Describe(f))
	return nil
}

func runPreview(args []string) error {
	fs := flag.NewFlagSet("preview", flag.ExitOnError)
	cf := config.BindFlags(fs)
	var (
		output string
		opts   preview.Options
	)
	fs.StringVar(&output, "o", "preview.png", "Output file (.png, .bmp, .tif or .pdf)")
	fs.BoolVar(&opts.Bands, "bands", true, "Outline the top, center and bottom bands")
	fs.Float64Var(&opts.LabelSize, "label", 0, "Label height in pixels (0 = automatic)")
	cfg, err := setup(fs, cf, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("preview needs exactly one format id")
	}

	repo, err := openRepo(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	f, err := repo.Get(fs.Arg(0))
	if err != nil {
		return err
	}
	base, err := f.LoadImage()
	if err != nil {
		return err
	}

	if strings.EqualFold(filepath.Ext(output), ".pdf") {
		file, err := os.Create(output)
		if err != nil {
			return fmt.Errorf("create output: %w", err)
		}
		defer file.Close()
		if err := preview.WritePDF(file, base, f.Geometry(), opts); err != nil {
			return err
		}
	} else {
		img, err := preview.Render(base, f.Geometry(), opts)
		if err != nil {
			return err
		}
		if err := generator.Generate(output, img); err != nil {
			return err
		}
	}
	fmt.Printf("Done: %s\n", output)
	return nil
}

func runInsert(args []string) error {
	fs := flag.NewFlagSet("insert", flag.ExitOnError)
	cf := config.BindFlags(fs)
	var (
		name     string
		from, to string
		remove   bool
	)
	fs.StringVar(&name, "name", "", "Insert name")
	fs.StringVar(&from, "from", "", "First corner as x,y")
	fs.StringVar(&to, "to", "", "Opposite corner as x,y")
	fs.BoolVar(&remove, "remove", false, "Delete the insert instead of setting it")
	cfg, err := setup(fs, cf, args)
	if err != nil {
		return err
	}
	if fs.NArg() != 1 || name == "" {
		return fmt.Errorf("insert needs -name and exactly one format id")
	}
	if info, err := os.Stat(cfg.RepoFolder); err == nil && !info.IsDir() {
		return fmt.Errorf("%s is an archive; inserts can only be edited in a directory repository", cfg.RepoFolder)
	}

	repo, err := openRepo(cfg)
	if err != nil {
		return err
	}
	defer repo.Close()

	f, err := repo.Get(fs.Arg(0))
	if err != nil {
		return err
	}

	geo := make(caption.Geometry, len(f.Inserts)+1)
	for k, v := range f.Inserts {
		geo[k] = v
	}
	if remove {
		if _, ok := geo[name]; !ok {
			return &caption.UnknownInsertError{Name: name}
		}
		delete(geo, name)
	} else {
		p1, err := parsePoint(from)
		if err != nil {
			return fmt.Errorf("-from: %w", err)
		}
		p2, err := parsePoint(to)
		if err != nil {
			return fmt.Errorf("-to: %w", err)
		}
		c := caption.Corners{From: p1, To: p2}
		if base, err := f.LoadImage(); err == nil && !c.Rect().In(base.Bounds()) {
			caption.Logger().Warn("insert extends past the image", "insert", name, "rect", c.Rect(), "bounds", base.Bounds())
		}
		geo[name] = c
	}

	if err := formats.WriteSidecar(f.ImagePath, geo); err != nil {
		return err
	}
	fmt.Printf("Updated: %s\n", formats.SidecarPath(f.ImagePath))
	return nil
}

func parsePoint(s string) (image.Point, error) {
	xs, ys, ok := strings.Cut(s, ",")
	if !ok {
		return image.Point{}, fmt.Errorf("want x,y, got %q", s)
	}
	x, err := strconv.Atoi(strings.TrimSpace(xs))
	if err != nil {
		return image.Point{}, fmt.Errorf("bad x in %q", s)
	}
	y, err := strconv.Atoi(strings.TrimSpace(ys))
	if err != nil {
		return image.Point{}, fmt.Errorf("bad y in %q", s)
	}
	return image.Pt(x, y), nil
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	cf := config.BindFlags(fs)
	var bg, mdlOut string
	fs.StringVar(&bg, "bg", "random", "Sample background color: hex or 'random'")
	fs.StringVar(&mdlOut, "mdl", "example.mdl", "Output path for the sample MDL")
	cfg, err := setup(fs, cf, args)
	if err != nil {
		return err
	}

	written, err := generator.WriteSamples(cfg.RepoFolder, bg)
	if err != nil {
		return fmt.Errorf("write samples: %w", err)
	}
	if err := os.WriteFile(mdlOut, []byte(generator.ExampleMDL(cfg.RepoName)), 0644); err != nil {
		return fmt.Errorf("write MDL: %w", err)
	}

	fmt.Printf("Created: %s, %s\n", strings.Join(written, ", "), mdlOut)
	fmt.Printf("Run: mdlchef render -repo %s -mdl %s -o meme.png\n", cfg.RepoFolder, mdlOut)
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

func printCredits() {
	fmt.Print(`MDLChef credits

Caption and preview font: Go Bold, by Bigelow & Holmes Inc.,
distributed with golang.org/x/image under a BSD-style license.

Built with alecthomas/participle, disintegration/imaging,
go-text/typesetting, tdewolff/canvas and golang.org/x/image.
`)
}

func printUsage() {
	fmt.Print(`MDLChef — Meme rendering from MDL documents (Pure Go)

USAGE:
    mdlchef [render] -mdl <file> -o <file> [options]
    mdlchef [render] -format <id> -top <text> -bottom <text> -o <file>
    mdlchef list [pattern]
    mdlchef info <format>
    mdlchef preview [-o preview.png|.pdf] <format>
    mdlchef insert -name <name> -from x,y -to x,y <format>
    mdlchef serve [-listen :8080]
    mdlchef init [-bg <hex>] [-mdl example.mdl]
    mdlchef credits

RENDER:
    -mdl <path>            MDL document, '-' for stdin (default: -)
    -message               Input is a chat message containing MDL
    -o, -output <path>     Output file (.png, .bmp, .tif) or '-' (default: meme.png)
    -format <id>           Skip MDL and render this format directly
    -top/-center/-bottom   Band captions (with -format)
    -insert name=text      Insert caption, repeatable (with -format)

SETTINGS (every command):
    -config <path>         Settings JSON (default: mdlchef.json, optional)
    -repo <path>           Format repository directory or .zip (default: memes)
    -repo-name <name>      Format id prefix (default: Meme)
    -fill <hex>            Caption fill color (default: #ffffff)
    -outline <hex>         Caption outline color (default: #000000)
    -upper                 Upper-case all captions
    -log-level <level>     debug, info, warn or error (default: info)

EXAMPLES:
    mdlchef init
    mdlchef -mdl example.mdl -o meme.png
    mdlchef list 'Meme.*'
    mdlchef info Meme.sign
    mdlchef preview -o sign.pdf Meme.sign
    mdlchef -format Meme.plain -top "one does not simply" -bottom "write a renderer" -o out.png
    echo '{version:"MDL/1.1",type:"meme",base:"Meme.plain",caption:"hi"}' | mdlchef -o - > hi.png
`)
}
