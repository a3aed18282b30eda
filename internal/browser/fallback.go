package browser

// fallbackPage is shown when the welcome page cannot be loaded.
const fallbackPage = `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Hyperaide Browser Sync</title>
<style>
  body { font-family: system-ui, -apple-system, sans-serif; margin: 0; padding: 48px;
         background: #14141f; color: #f2f2f7; line-height: 1.5; }
  h1 { font-weight: 600; margin-top: 0; }
  .hint { color: #a0a0b8; }
  strong { color: #ffffff; }
</style>
</head>
<body>
  <h1>Hyperaide Browser Sync</h1>
  <p>Open a new tab and sign in to each site you want Hyperaide to use on your behalf.</p>
  <p><strong>When you are finished, close this browser window.</strong> Your sign-ins are synced as soon as it closes.</p>
  <p class="hint">Only cookies set by the sites you visit are read. Passwords you type are never captured.</p>
</body>
</html>
`
