// Command h5ls lists the groups, datasets, and attributes of an HDF5 file.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/pcafrica/dealii/hdf5"
)

var asYAML = flag.Bool("yaml", false, "emit the file tree as YAML")

type entry struct {
	Name        string   `yaml:"name"`
	Kind        string   `yaml:"kind"`
	Dims        []uint64 `yaml:"dims,omitempty"`
	ElementSize int      `yaml:"element_size,omitempty"`
	Attrs       []string `yaml:"attrs,omitempty"`
	Children    []entry  `yaml:"children,omitempty"`
}

func main() {
	flag.Parse()
	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: h5ls [-yaml] <file>")
		os.Exit(2)
	}

	f, err := hdf5.NewFile(flag.Arg(0), hdf5.ModeReadOnly)
	if err != nil {
		fmt.Fprintf(os.Stderr, "h5ls: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	root, err := walk(&f.Group, "/")
	if err != nil {
		fmt.Fprintf(os.Stderr, "h5ls: %v\n", err)
		os.Exit(1)
	}

	if *asYAML {
		enc := yaml.NewEncoder(os.Stdout)
		if err := enc.Encode(root); err != nil {
			fmt.Fprintf(os.Stderr, "h5ls: %v\n", err)
			os.Exit(1)
		}
		enc.Close()
		return
	}
	printTree(root, 0)
}

func walk(g *hdf5.Group, name string) (entry, error) {
	e := entry{Name: name, Kind: hdf5.KindGroup.String()}
	attrs, err := g.AttrNames()
	if err != nil {
		return e, err
	}
	e.Attrs = attrs

	members, err := g.Members()
	if err != nil {
		return e, err
	}
	for _, member := range members {
		info, err := g.Stat(member)
		if err != nil {
			return e, err
		}
		if info.Kind == hdf5.KindDataset {
			e.Children = append(e.Children, entry{
				Name:        member,
				Kind:        info.Kind.String(),
				Dims:        info.Dims,
				ElementSize: info.ElementSize,
				Attrs:       info.Attrs,
			})
			continue
		}
		child, err := g.OpenGroup(member)
		if err != nil {
			return e, err
		}
		sub, err := walk(child, member)
		child.Close()
		if err != nil {
			return e, err
		}
		e.Children = append(e.Children, sub)
	}
	return e, nil
}

func printTree(e entry, depth int) {
	indent := strings.Repeat("  ", depth)
	line := fmt.Sprintf("%s%s  %s", indent, e.Name, e.Kind)
	if e.Kind == hdf5.KindDataset.String() {
		dims := make([]string, len(e.Dims))
		for i, d := range e.Dims {
			dims[i] = fmt.Sprintf("%d", d)
		}
		line += fmt.Sprintf(" {%s} %d-byte elements", strings.Join(dims, ", "), e.ElementSize)
	}
	fmt.Println(line)
	for _, attr := range e.Attrs {
		fmt.Printf("%s  @%s\n", indent, attr)
	}
	for _, child := range e.Children {
		printTree(child, depth+1)
	}
}
