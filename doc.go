/*
Package bracket renders text templates written with bracket directives.

A template is ordinary text with {placeholders} and directives that open with
a bracket and close with "}]":

	<ul>
	[foreach users as i => user {
	  <li>{loop_index}. {user.name|ufirst}</li>
	}]
	</ul>
	[if users|length > 10 && !compact {
	  [require("more.html")]
	}][else {
	  <p>[str_filter(footer, (trim, truncate(40)))]</p>
	}]

The directives are for N, foreach, if, else if, else, require and
str_filter.  Substituted values are HTML-escaped.

Usage example

Typically an application keeps its templates in one directory:

	views/
	views/account/
	views/feed/

On startup, parse a file of globals and every template in the directory:

	set, err := bracket.NewBundle().
		WatchFiles(mode == "dev").           // recompile on change (in dev)
		AddGlobalsFile("views/globals.txt"). // name = literal lines
		AddTemplateDir("views").             // *.html and *.tpl, named relative to views
		Compile()

To render a page:

	err := set.Template("account/overview.html").Execute(ctx, w, map[string]interface{}{
		"user":    user,
		"account": account,
	})

Data may be a *data.Map, any Go map or a struct; it is converted with
data.New and merged over the globals.

Caching

When a config.Config selects a cache backend, parsed trees are stored under
a fingerprint of their source and the globals, and reused by later
processes.  With CacheOutput set, rendered output is stored as well, keyed by
the source and the data.

Advanced Usage

The sub-packages may be used directly: parse builds trees, render executes
them and debug prints them.
*/
package bracket
