package csharp

import (
	"fmt"
	"strings"

	"bindgen/internal/output"
)

// Finalize appends the opaque wrappers, custom constants and the callbacks
// region, then seals every document.
func (b *Backend) Finalize(out *output.Set) error {
	b.prepare(out)

	if opaque := b.env.Opaque(); len(opaque) > 0 {
		var buf strings.Builder
		fmt.Fprintf(&buf, "%s#pragma warning disable CS0169\n", indent)
		for _, name := range opaque {
			fmt.Fprintf(&buf, "%spublic struct %s {\n", indent, name)
			fmt.Fprintf(&buf, "%sprivate IntPtr _value;\n", indentBody)
			fmt.Fprintf(&buf, "%s}\n\n", indent)
		}
		fmt.Fprintf(&buf, "%s#pragma warning restore CS0169\n", indent)
		out.Doc(output.Types).WriteString(buf.String())
	}
	for _, line := range b.customs {
		out.Doc(output.Constants).WriteString(line)
	}
	b.writeCallbacks(out)

	out.Doc(output.Types).Seal(b.wrapTypes)
	out.Doc(output.Constants).Seal(b.wrapConstants)
	out.Doc(output.Impl).Seal(b.wrapImpl)
	out.Doc(output.Interface).Seal(b.wrapInterface)
	return nil
}

func header(d *output.Document) string {
	var sb strings.Builder
	for _, ns := range d.Imports() {
		fmt.Fprintf(&sb, "using %s;\n", ns)
	}
	sb.WriteString("\n")
	return sb.String()
}

func (b *Backend) wrapTypes(d *output.Document) string {
	return fmt.Sprintf("%snamespace %s {\n%s}\n", header(d), b.cfg.Namespace, d.Body())
}

func (b *Backend) wrapConstants(d *output.Document) string {
	return fmt.Sprintf("%snamespace %s {\n%spublic static class Constants {\n%s%s}\n}\n",
		header(d), b.cfg.Namespace, indent, d.Body(), indent)
}

func (b *Backend) wrapImpl(d *output.Document) string {
	var sb strings.Builder
	sb.WriteString(header(d))
	fmt.Fprintf(&sb, "namespace %s {\n", b.cfg.Namespace)
	fmt.Fprintf(&sb, "%spublic partial class %s : I%s {\n", indent, b.cfg.Class, b.cfg.Class)
	fmt.Fprintf(&sb, "%s#if %s\n", indentBody, b.cfg.RestrictedSymbol)
	fmt.Fprintf(&sb, "%sinternal const String DLL_NAME = %q;\n", indentBody, b.cfg.RestrictedLibrary)
	fmt.Fprintf(&sb, "%s#else\n", indentBody)
	fmt.Fprintf(&sb, "%sinternal const String DLL_NAME = %q;\n", indentBody, b.cfg.Library)
	fmt.Fprintf(&sb, "%s#endif\n\n", indentBody)
	sb.WriteString(d.Body())
	fmt.Fprintf(&sb, "%s}\n}\n", indent)
	return sb.String()
}

func (b *Backend) wrapInterface(d *output.Document) string {
	return fmt.Sprintf("%snamespace %s {\n%spublic partial interface I%s {\n%s%s}\n}\n",
		header(d), b.cfg.Namespace, indent, b.cfg.Class, d.Body(), indent)
}
