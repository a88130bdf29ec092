package mcpserver

// CatalogFormat describes the catalog files so LLM consumers can read raw
// catalog documents without guessing their layout.
const CatalogFormat = `# CSA Catalog Format

The catalog directory holds UTF-8 JSON files indented with two spaces and
ending in a newline.

## csa_hauls.json

` + "```" + `json
{
  "csa_hauls": [
    {
      "time_stamp": "2024_05_06",
      "title": "csa_haul_2024_1",
      "alias": "2024 CSA Week 1",
      "picture": "assets/imgs/csa/2024/csa_haul_2024_1.jpg",
      "csa_items": [{"product_id": "leave_empty", "alias": "kale"}],
      "message": "Week 1: first pick of the season"
    }
  ]
}
` + "```" + `

## csa_recipes.json

` + "```" + `json
{
  "csa_recipes": [
    {
      "alias": "Kale Chips",
      "recipe_id": "001",
      "picture": "assets/imgs/csa/recipes/csa_recipe_001.jpg",
      "csa_items": [{"product_id": "leave_empty", "alias": "kale"}],
      "ingredients": [{"product_id": "leave_empty", "alias": "olive_oil"}],
      "message": [{"paragraph_1": "Bake until crisp."}]
    }
  ]
}
` + "```" + `

## Registries

products.json, ingredients.json and recipes.json map aliases to zero-padded
ids: {"products": [{"product_id": "001", "alias": "kale"}]}. Ids never change
once assigned.

## Rules

1. Aliases are lowercase words joined by underscores.
2. "leave_empty" marks an id that has not been resolved yet.
3. Item references in csa_items and ingredients always use the product_id
   key; only the registry files use their own id key.
4. A recipe id appears once per week the recipe was published.
5. strings.json holds haul messages as {"strings": [{"string_1": "..."}]}.
`
