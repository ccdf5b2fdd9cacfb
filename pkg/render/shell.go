package render

import "strings"

// Title is the document title shared by every admin page.
const Title = "Excel Admin Upload"

const shellHead = `<!DOCTYPE html>
<html lang="en">
<head>
  <meta charset="UTF-8" />
  <meta name="viewport" content="width=device-width, initial-scale=1.0" />
  <title>` + Title + `</title>
  <style>
    :root {
      color-scheme: light dark;
      font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', sans-serif;
    }
    body {
      margin: 0;
      padding: 2rem;
      min-height: 100vh;
      display: flex;
      align-items: center;
      justify-content: center;
      background: #0f172a;
      color: #e2e8f0;
    }
    .card {
      width: 100%;
      max-width: 720px;
      padding: 2rem;
      border-radius: 1rem;
      background: #1e293b;
      border: 1px solid rgba(226, 232, 240, 0.08);
      box-shadow: 0 20px 60px rgba(15, 23, 42, 0.5);
    }
    h1 { margin: 0 0 1rem; font-size: 1.75rem; color: #f1f5f9; }
    p { margin: 0 0 1.5rem; color: #cbd5f5; }
    form { display: flex; flex-direction: column; gap: 1rem; }
    input[type="file"] {
      padding: 0.9rem;
      border-radius: 0.75rem;
      border: 1px dashed rgba(226, 232, 240, 0.3);
      background: rgba(15, 23, 42, 0.4);
      color: inherit;
    }
    button {
      padding: 0.85rem 1.5rem;
      border: none;
      border-radius: 0.75rem;
      background: #6366f1;
      color: white;
      font-size: 1rem;
      cursor: pointer;
      transition: background 0.2s ease;
    }
    button:hover { background: #4f46e5; }
    .status {
      margin-top: 1.5rem;
      padding: 1rem;
      border-radius: 0.75rem;
      background: rgba(15, 23, 42, 0.5);
      border: 1px solid rgba(226, 232, 240, 0.08);
    }
    .status.success { border-color: rgba(34, 197, 94, 0.5); color: #4ade80; }
    .status.error { border-color: rgba(248, 113, 113, 0.5); color: #f87171; }
    pre {
      overflow-x: auto;
      padding: 1rem;
      border-radius: 0.75rem;
      background: rgba(15, 23, 42, 0.6);
    }
  </style>
</head>
<body>
  <main class="card">
`

const shellTail = `
  </main>
</body>
</html>`

// Page wraps an HTML fragment in the admin document shell.
//
// The fragment is inserted verbatim. Page performs no escaping and has no
// state, so identical input always yields identical output.
func Page(fragment string) string {
	var b strings.Builder
	b.Grow(len(shellHead) + len(fragment) + len(shellTail))
	b.WriteString(shellHead)
	b.WriteString(fragment)
	b.WriteString(shellTail)
	return b.String()
}
