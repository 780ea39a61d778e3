package mcpserver

// layoutDoc is served as the module-layout resource so agents understand the
// shape of the generated module before reaching for the tools.
const layoutDoc = `# Tennisfel Module Layout

The generated Foundry VTT module has this structure:

` + "```" + `
<output dir>/
  module.json          manifest: id, title, version, compatibility, packs
  packs/
    <id>-journal.db    JournalEntry documents, one JSON object per line
    <id>-scenes.db     Scene documents, one JSON object per line
  assets/
    images/            inline page images
    banners/           resource banner images
    maps/              scene background images
` + "```" + `

Every document carries flags.tennisfel.legendkeeper_id with the id of the
source resource, and flags.tennisfel.tags with its tags. Page content is HTML;
cross-references use @UUID[Type.id]{text} syntax and GM-only passages are
wrapped in <section class="secret"> blocks.

Tools:
- search_compendium: full-text search over names, tags and page text
- read_entry: fetch one indexed document by its 16 character id
- list_entries: enumerate documents, filterable by type and pack
- get_manifest: return the module.json of the last conversion
`
