package notifications

var commonTemplates = map[string]string{
	`default`: `
{{- if .Failed}}Task failed{{else}}Task succeeded{{end}} after {{Elapsed .Duration}}
{{- range .Entries}}
{{LevelTag .Level}}: {{.Message}}
{{- end -}}`,

	`summary`: `{{Verdict .Failed}} {{.Session}}`,

	`json.v1`: `{{ . | ToJSON }}`,
}
