// Package image loads metadata images: YAML documents describing types,
// members, enum values and handles, assembled into an env.Memory.
//
// Type references are full names. Constructed generic types list their
// arguments in brackets, and generic parameters are referenced by the names
// declared in generic_params:
//
//	types:
//	  - name: Demo.Box`1
//	    kind: class
//	    generic_params: [T]
//	    fields:
//	      - {name: item, type: T}
//	  - name: Demo.Holder
//	    kind: class
//	    layout: sequential
//	    fields:
//	      - {name: box, type: "Demo.Box`1[System.Int32]"}
//
// A wit section imports WIT component types through package witenv. Image
// types may refer to them by their converted names:
//
//	wit:
//	  - namespace: Wasi.Io
//	    types:
//	      - {name: error-code, enum: [closed, would-block]}
//	      - {name: input-stream, resource: true}
package image

import (
	"bytes"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/wippyai/reflect-runtime/env"
	"github.com/wippyai/reflect-runtime/errors"
	"github.com/wippyai/reflect-runtime/metadata"
)

// Document is the YAML form of a metadata image.
type Document struct {
	Types   []TypeDecl   `yaml:"types"`
	WIT     []WITPackage `yaml:"wit,omitempty"`
	Handles Handles      `yaml:"handles,omitempty"`
}

// TypeDecl declares one type definition.
type TypeDecl struct {
	// Name is the namespace-qualified name, e.g. "Demo.Point".
	Name string `yaml:"name"`

	// Kind is one of class, struct, enum, delegate, interface.
	Kind string `yaml:"kind"`

	// Base overrides the default base type of the kind.
	Base string `yaml:"base,omitempty"`

	// Underlying is the integral type of an enum. Defaults to System.Int32.
	Underlying string `yaml:"underlying,omitempty"`

	Interfaces    []string `yaml:"interfaces,omitempty"`
	GenericParams []string `yaml:"generic_params,omitempty"`

	// Layout is "explicit" (offsets as declared, the default) or
	// "sequential" (offsets computed from field types).
	Layout string `yaml:"layout,omitempty"`

	Fields  []FieldDecl  `yaml:"fields,omitempty"`
	Methods []MethodDecl `yaml:"methods,omitempty"`

	// Enum lists the values of an enum type.
	Enum *EnumDecl `yaml:"enum,omitempty"`

	// Invoke is the signature of a delegate type.
	Invoke *SignatureDecl `yaml:"invoke,omitempty"`

	// ClassConstructor registers a class constructor for the type.
	ClassConstructor bool `yaml:"class_constructor,omitempty"`

	MetadataOnly bool `yaml:"metadata_only,omitempty"`
}

// FieldDecl declares a field.
type FieldDecl struct {
	Name   string `yaml:"name"`
	Type   string `yaml:"type"`
	Offset int    `yaml:"offset,omitempty"`
	Static bool   `yaml:"static,omitempty"`
	Public bool   `yaml:"public,omitempty"`
}

// MethodDecl declares a method or constructor.
type MethodDecl struct {
	Name          string      `yaml:"name"`
	Returns       string      `yaml:"returns,omitempty"`
	Params        []ParamDecl `yaml:"params,omitempty"`
	GenericParams []string    `yaml:"generic_params,omitempty"`
	EntryPoint    uint64      `yaml:"entry_point,omitempty"`
	Static        bool        `yaml:"static,omitempty"`
	Public        bool        `yaml:"public,omitempty"`
	Constructor   bool        `yaml:"constructor,omitempty"`
	MetadataOnly  bool        `yaml:"metadata_only,omitempty"`
}

// ParamDecl declares a method parameter.
type ParamDecl struct {
	Name string `yaml:"name"`
	Type string `yaml:"type"`
}

// SignatureDecl is a delegate Invoke signature.
type SignatureDecl struct {
	Returns string      `yaml:"returns,omitempty"`
	Params  []ParamDecl `yaml:"params,omitempty"`
}

// EnumDecl lists enum values in declaration order.
type EnumDecl struct {
	Values []EnumValueDecl `yaml:"values"`
	Flags  bool            `yaml:"flags,omitempty"`
}

// EnumValueDecl is one named enum value. Negative values are stored as
// sign-extended bit patterns.
type EnumValueDecl struct {
	Name  string `yaml:"name"`
	Value int64  `yaml:"value"`
}

// Handles lists the handles to register.
type Handles struct {
	Methods []MethodHandleDecl `yaml:"methods,omitempty"`
	Fields  []FieldHandleDecl  `yaml:"fields,omitempty"`
}

// MethodHandleDecl registers a method handle under ID.
type MethodHandleDecl struct {
	ID string `yaml:"id"`

	// Type declares the method; Method names it. When the type has
	// overloads, Params selects one by parameter types.
	Type   string   `yaml:"type"`
	Method string   `yaml:"method"`
	Params []string `yaml:"params,omitempty"`

	// On is the type the handle was issued for, e.g. an instantiation of Type.
	On         string   `yaml:"on,omitempty"`
	MethodArgs []string `yaml:"method_args,omitempty"`

	// Shared lists instantiations sharing the handle. It resolves only with
	// one of them as context.
	Shared []string `yaml:"shared,omitempty"`
}

// FieldHandleDecl registers a field handle under ID.
type FieldHandleDecl struct {
	ID     string   `yaml:"id"`
	Type   string   `yaml:"type"`
	Field  string   `yaml:"field"`
	On     string   `yaml:"on,omitempty"`
	Shared []string `yaml:"shared,omitempty"`
}

// Image is a loaded metadata image.
type Image struct {
	Env           *env.Memory
	MethodHandles map[string]metadata.MethodHandle
	FieldHandles  map[string]metadata.FieldHandle
}

// Parse decodes a YAML document. Unknown keys are rejected.
func Parse(data []byte) (*Document, error) {
	var doc Document
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Load("parse image", err)
	}
	return &doc, nil
}

// Load parses and builds an image.
func Load(data []byte) (*Image, error) {
	doc, err := Parse(data)
	if err != nil {
		return nil, err
	}
	return doc.Build()
}

// LoadFile reads and builds an image file.
func LoadFile(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Load("read "+path, err)
	}
	return Load(data)
}

// Marshal encodes a document as YAML.
func (d *Document) Marshal() ([]byte, error) {
	return yaml.Marshal(d)
}
