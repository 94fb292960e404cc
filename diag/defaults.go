package diag

// This file registers the default message template for every code.
// Hosts may override any of them with RegisterTemplate, e.g. to translate.

func init() {
	RegisterTemplate(CodeDuplicateIdentifier,
		"Specified plugin identifier already exists: @id. Use ReplacePlugin() instead.")
	RegisterTemplate(CodeUnknownIdentifier,
		"Specified plugin identifier does not exist: @id")
	RegisterTemplate(CodeInvalidIdentifier,
		"Plugin identifiers must be non-empty strings: @id")
	RegisterTemplate(CodeInvalidImplementation,
		`You must provide a constructor function to create a plugin "@id": @plugin`)
	RegisterTemplate(CodeInvalidCallback,
		`You must provide a callback function to extend or replace the plugin "@id": @callback`)
	RegisterTemplate(CodeInvalidExtensionResult,
		`Returned value from callback is not a plain object that can be used to extend the plugin "@id": @obj`)
	RegisterTemplate(CodeInvalidReplacement,
		`Returned value from callback is not a usable function to replace the plugin "@id": @plugin`)
	RegisterTemplate(CodeInvalidReceiver,
		`Cannot chain a non-callable value onto member "@member": @value`)
	RegisterTemplate(CodeInvalidMergeInput,
		"Passed object is not supported: @object")
	RegisterTemplate(CodeConflict,
		`Plugin "@id" was replaced while its extension callback was running`)
	RegisterTemplate(CodeUnsupported,
		"Unsupported: (@type) @name -> @value")
}
