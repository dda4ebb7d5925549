// Package render turns an ordered entry list into the generated C# source file.
//
// The file is produced from one of two fixed skeletons (with or without a namespace wrapper)
// containing tag placeholders. All tags are substituted in a single pass, so text coming from
// entries is never scanned for tags again.
package render

import (
	"strconv"
	"strings"

	"git.home.luguber.info/inful/typedstrings/internal/entryset"
)

// Template tags.
const (
	TagEnum         = "#ENUM#"
	TagSwitch       = "#SWITCH#"
	TagNamespace    = "#NAMESPACE#"
	TagNamespaceTab = "#NAMESPACETAB#"
	TagNewline      = "#NEWLINE#"
	TagType         = "#TYPE#"
)

// Tab is one indentation level of generated code.
const Tab = "    "

const (
	enumType = TagType + "Type"

	header = "// This file is auto-generated!" + TagNewline + TagNewline

	body = TagNamespaceTab + "/// <summary>" + TagNewline +
		TagNamespaceTab + "/// Use ToValue() to get the actual string value." + TagNewline +
		TagNamespaceTab + "/// </summary>" + TagNewline +
		TagNamespaceTab + "public enum " + enumType + TagNewline +
		TagNamespaceTab + "{" + TagEnum + TagNewline +
		TagNamespaceTab + "}" + TagNewline + TagNewline +
		TagNamespaceTab + "public static class " + enumType + "Extensions" + TagNewline +
		TagNamespaceTab + "{" + TagNewline +
		TagNamespaceTab + Tab + "/// <summary>" + TagNewline +
		TagNamespaceTab + Tab + "/// Get the actual string value for the " + TagType + "." + TagNewline +
		TagNamespaceTab + Tab + "/// </summary>" + TagNewline +
		TagNamespaceTab + Tab + "public static string GetValue(this " + enumType + " enumValue)" + TagNewline +
		TagNamespaceTab + Tab + "{" + TagNewline +
		TagNamespaceTab + Tab + Tab + "switch (enumValue)" + TagNewline +
		TagNamespaceTab + Tab + Tab + "{" + TagSwitch + TagNewline +
		TagNamespaceTab + Tab + Tab + Tab + "default: throw new System.ArgumentOutOfRangeException();" + TagNewline +
		TagNamespaceTab + Tab + Tab + "}" + TagNewline +
		TagNamespaceTab + Tab + "}" + TagNewline +
		TagNamespaceTab + "}" + TagNewline

	// WithNamespace is the skeleton used when a namespace is configured.
	WithNamespace = header + "namespace " + TagNamespace + TagNewline + "{" + TagNewline + body + "}" + TagNewline
	// WithoutNamespace is the skeleton used for the global namespace.
	WithoutNamespace = header + body
)

// Params selects what is rendered around the entries.
type Params struct {
	// Type is the unit type; "Scene" renders SceneType.
	Type       string
	Namespace  string
	LineEnding LineEnding
}

var valueEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, "\r", `\r`, "\n", `\n`, "\t", `\t`)

// Render produces the complete file content for entries. It is a pure function of its input.
func Render(entries []entryset.Entry, p Params) string {
	newline := p.LineEnding.Sequence()

	skeleton := WithoutNamespace
	namespaceTab := ""
	if p.Namespace != "" {
		skeleton = WithNamespace
		namespaceTab = Tab
	}

	var enumBlock, switchBlock strings.Builder
	typeName := p.Type + "Type"
	for _, e := range entries {
		enumBlock.WriteString(newline)
		enumBlock.WriteString(namespaceTab + Tab)
		enumBlock.WriteString(e.Identifier)
		if e.HasID {
			enumBlock.WriteString(" = ")
			enumBlock.WriteString(strconv.Itoa(e.ID))
		}
		enumBlock.WriteString(",")

		switchBlock.WriteString(newline)
		switchBlock.WriteString(namespaceTab + Tab + Tab + Tab)
		switchBlock.WriteString("case ")
		switchBlock.WriteString(typeName)
		switchBlock.WriteString(".")
		switchBlock.WriteString(e.Identifier)
		switchBlock.WriteString(`: return "`)
		switchBlock.WriteString(valueEscaper.Replace(e.Value))
		switchBlock.WriteString(`";`)
	}

	r := strings.NewReplacer(
		TagEnum, enumBlock.String(),
		TagSwitch, switchBlock.String(),
		TagNamespaceTab, namespaceTab,
		TagNamespace, p.Namespace,
		TagType, p.Type,
		TagNewline, newline,
	)
	return r.Replace(skeleton)
}
