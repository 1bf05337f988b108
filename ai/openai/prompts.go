package openai

import (
	"fmt"
	"strings"

	"github.com/poiesic/answerit/ai"
)

const extractionResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "properties": {
    "entities": {
      "type": "array",
      "items": {
        "type": "object",
        "properties": {
          "name": {
            "type": "string"
          },
          "type": {
            "type": "string"
          }
        },
        "required": ["name", "type"],
        "additionalProperties": false
      }
    }
  },
  "required": ["entities"],
  "additionalProperties": false
}`

const extractionPromptTemplate = `Extract the named entities from the given text and return them as JSON.

Output ONLY valid JSON which complies with the schema given below. Do not include any preamble, explanation,
greeting, or acknowledgment. Start your response directly with the opening brace { and end with the closing
brace }. Your output must exactly follow this schema:

%s

Rules:
- Entity names keep the casing used in the text.
- Type field must match exactly one of the listed values: %s.
- Include only entities that are explicitly mentioned in the text. Do not hallucinate.
- Skip pronouns and generic nouns that do not name anything specific.
- If no entities can be identified, return "entities": [].
- The JSON must parse without errors; no trailing commas, no extra keys, and no extraneous text outside the object.

Example:
Input: "The Eiffel Tower was completed in 1889 for the Paris World's Fair."
Output:
{
  "entities": [
    {"name":"Eiffel Tower","type":"location"},
    {"name":"1889","type":"date"},
    {"name":"Paris World's Fair","type":"event"}
  ]
}

Example (technical text):
Input: "PostgreSQL and Redis are both maintained by active open source communities."
Output:
{
  "entities": [
    {"name":"PostgreSQL","type":"technology"},
    {"name":"Redis","type":"technology"}
  ]
}

Example (no entities):
Input: "it was a nice day and nothing much happened"
Output:
{
  "entities": []
}`

// buildExtractionPrompt creates the system prompt with entity types embedded.
func buildExtractionPrompt() string {
	return fmt.Sprintf(extractionPromptTemplate,
		extractionResponseSchema,
		strings.Join(ai.EntityTypes, ", "))
}
