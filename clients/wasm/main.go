//go:build js && wasm

// MDLChef WASM — Client-side meme renderer.
// Compiled with: GOOS=js GOARCH=wasm go build -o mdlchef.wasm ./clients/wasm/
package main

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"sync"
	"syscall/js"

	_ "golang.org/x/image/webp"

	"github.com/xob0t/mdlchef/pkg/caption"
	"github.com/xob0t/mdlchef/pkg/chef"
	"github.com/xob0t/mdlchef/pkg/formats"
)

// In-memory format store (replaces the server-side repository).
type formatStore struct {
	mu      sync.RWMutex
	formats map[string]*formats.Format
}

func (fs *formatStore) Get(id string) (*formats.Format, error) {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	if f, ok := fs.formats[id]; ok {
		return f, nil
	}
	return nil, &formats.UnknownFormatError{ID: id}
}

var (
	store = &formatStore{formats: make(map[string]*formats.Format)}
	svc   *chef.Service
)

func main() {
	var err error
	svc, err = chef.New(store, nil)
	if err != nil {
		fmt.Println("MDLChef WASM failed:", err)
		return
	}
	fmt.Println("MDLChef WASM loaded")

	// Register JS-callable functions.
	js.Global().Set("goRegisterFormat", js.FuncOf(registerFormat))
	js.Global().Set("goRemoveFormat", js.FuncOf(removeFormat))
	js.Global().Set("goRenderMDL", js.FuncOf(renderMDL))
	js.Global().Set("goReady", js.ValueOf(true))

	// Block forever (WASM must not exit).
	select {}
}

// goRegisterFormat(id, base64Image, sidecarJSON): decode a base image and
// store it with its inserts. sidecarJSON may be empty. Returns "ok", or
// "warning: ..." lines when some inserts were dropped.
func registerFormat(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("error: need id, base64Image[, sidecarJSON]")
	}
	id := args[0].String()
	data, err := base64.StdEncoding.DecodeString(args[1].String())
	if err != nil {
		return js.ValueOf("error: invalid base64: " + err.Error())
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return js.ValueOf("error: decode image: " + err.Error())
	}

	geo := caption.Geometry{}
	var warnings []string
	if len(args) > 2 && args[2].String() != "" {
		geo, warnings = formats.ParseSidecar(id, []byte(args[2].String()))
	}

	store.mu.Lock()
	store.formats[id] = formats.NewFormat(id, img, geo)
	store.mu.Unlock()

	if len(warnings) > 0 {
		out := ""
		for _, w := range warnings {
			out += "warning: " + w + "\n"
		}
		return js.ValueOf(out)
	}
	return js.ValueOf("ok")
}

// goRemoveFormat(id): remove a format from Go memory.
func removeFormat(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need id")
	}
	store.mu.Lock()
	delete(store.formats, args[0].String())
	store.mu.Unlock()
	return js.ValueOf("ok")
}

// goRenderMDL(mdl): render and return base64 PNG, or "error: <title>: <message>".
func renderMDL(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return js.ValueOf("error: need mdl")
	}
	data, _, err := svc.RenderMDL(args[0].String())
	if err != nil {
		return js.ValueOf("error: " + chef.Title(err) + ": " + err.Error())
	}
	return js.ValueOf(base64.StdEncoding.EncodeToString(data))
}
