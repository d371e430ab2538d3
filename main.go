// Command imcode hides byte payloads in the low bits of raster images
// and recovers them with the same keyword.
package main

import (
	"bytes"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
)

const version = "1.0.0"

// CLI defines the command-line interface for imcode.
var CLI struct {
	Encode  EncodeCmd  `cmd:"" help:"Hide a payload inside a carrier image"`
	Decode  DecodeCmd  `cmd:"" help:"Recover a hidden payload from a carrier image"`
	Collide CollideCmd `cmd:"" help:"Check whether two keywords would overwrite each other"`
	Version VersionCmd `cmd:"" help:"Print version information"`
}

// EncodeCmd hides an inline text or file payload in a carrier image.
type EncodeCmd struct {
	Image   string `arg:"" help:"Carrier image (png, jpeg, gif or bmp)" type:"existingfile"`
	Out     string `required:"" short:"o" help:"Output PNG path" type:"path"`
	Keyword string `required:"" short:"k" help:"Keyword selecting the placement"`
	Text    string `help:"Inline text payload"`
	Payload string `help:"File payload" type:"existingfile"`
}

func (c *EncodeCmd) Run() error {
	var payload []byte
	switch {
	case c.Payload != "":
		data, err := os.ReadFile(c.Payload)
		if err != nil {
			return err
		}
		payload = data
	case c.Text != "":
		payload = []byte(c.Text)
	default:
		return ErrNoPayload
	}

	grid, err := LoadCarrier(c.Image)
	if err != nil {
		return err
	}
	if err := Encode(grid, c.Keyword, bytes.NewReader(payload), int64(len(payload))); err != nil {
		return err
	}
	if err := SaveCarrier(grid, c.Out); err != nil {
		return err
	}
	fmt.Printf("Hid %d bytes in %s → %s (information space %d)\n",
		len(payload), c.Image, c.Out, SpaceOf(c.Keyword))
	return nil
}

// DecodeCmd recovers a payload and writes it to a file, or prints it
// to stdout as text when no output path is given.
type DecodeCmd struct {
	Image   string `arg:"" help:"Carrier image holding hidden data" type:"existingfile"`
	Keyword string `required:"" short:"k" help:"Keyword used when encoding"`
	Out     string `short:"o" help:"Write the payload here instead of stdout" type:"path"`
}

func (c *DecodeCmd) Run() error {
	grid, err := LoadCarrier(c.Image)
	if err != nil {
		return err
	}

	// Decode fully into memory first so a mid-stream failure never
	// leaves a partial output file.
	var buf bytes.Buffer
	if err := Decode(grid, c.Keyword, &buf); err != nil {
		return err
	}

	if c.Out == "" {
		fmt.Println(buf.String())
		return nil
	}
	if err := SaveBytes(buf.Bytes(), c.Out); err != nil {
		return err
	}
	fmt.Printf("Recovered %d bytes from %s → %s\n", buf.Len(), c.Image, c.Out)
	return nil
}

// CollideCmd reports whether two keywords share an information space.
type CollideCmd struct {
	KeywordA string `arg:"" help:"First keyword"`
	KeywordB string `arg:"" help:"Second keyword"`
}

func (c *CollideCmd) Run() error {
	a, b, collide := CheckCollision(c.KeywordA, c.KeywordB)
	if collide {
		fmt.Printf("warning: both keywords map to information space %d; encoding with one corrupts data hidden with the other\n", a)
	} else {
		fmt.Printf("ok: keywords map to different information spaces (%d and %d)\n", a, b)
	}
	return nil
}

// VersionCmd prints the version.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	fmt.Println("imcode " + version)
	return nil
}

func main() {
	ctx := kong.Parse(&CLI,
		kong.Name("imcode"),
		kong.Description("Least-significant-bit image steganography with keyword-driven placement."),
	)
	ctx.FatalIfErrorf(ctx.Run())
}
