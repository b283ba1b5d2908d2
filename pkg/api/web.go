package api

var tmpl = `
<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <meta name="viewport" content="width=device-width, initial-scale=1.0">
    <title>play-dl</title>
    <style>
        :root { --bg: #101418; --card: #1a2027; --text: #dde3ea; --accent: #e04747; }
        body { background: var(--bg); color: var(--text); font-family: system-ui, sans-serif; display: grid; place-items: center; min-height: 100vh; margin: 0; }
        .container { background: var(--card); padding: 2rem; border-radius: 12px; box-shadow: 0 10px 30px rgba(0,0,0,0.5); width: 90%; max-width: 560px; }
        h1 { margin: 0 0 1rem; font-size: 1.4rem; color: var(--accent); text-align: center; }
        input { width: 100%; padding: 12px; margin: 8px 0; border: 1px solid #2c3540; border-radius: 6px; background: #242c35; color: #fff; box-sizing: border-box; outline: none; }
        input:focus { border-color: var(--accent); }
        .row { display: flex; gap: 8px; }
        button { flex: 1; padding: 10px; border: none; border-radius: 6px; background: var(--accent); color: white; font-weight: bold; cursor: pointer; }
        button:hover { opacity: 0.9; }
        button:disabled { background: #555; cursor: not-allowed; }
        pre { margin-top: 16px; padding: 12px; background: #12171c; border-radius: 6px; max-height: 50vh; overflow: auto; font-size: 0.8rem; white-space: pre-wrap; word-break: break-word; }
        .error { color: var(--accent); font-size: 0.9rem; }
    </style>
</head>
<body>
    <div class="container">
        <h1>play-dl lookup</h1>
        <input type="text" id="ref" placeholder="Video link, playlist link, or search words" required>
        <div class="row">
            <button id="video">Video</button>
            <button id="playlist">Playlist</button>
            <button id="search">Search</button>
        </div>
        <pre id="out">Results appear here.</pre>
    </div>

    <script>
        const out = document.getElementById('out'),
              ref = document.getElementById('ref'),
              buttons = ['video', 'playlist', 'search'].map(id => document.getElementById(id));

        async function lookup(endpoint, params) {
            buttons.forEach(b => b.disabled = true);
            out.textContent = 'Loading...';
            try {
                const resp = await fetch('/api/' + endpoint + '?' + new URLSearchParams(params));
                const data = await resp.json();
                if (!resp.ok) throw new Error(data.error || resp.statusText);
                out.textContent = JSON.stringify(data, null, 2);
            } catch (err) {
                out.innerHTML = '<span class="error">' + err.message + '</span>';
            } finally {
                buttons.forEach(b => b.disabled = false);
            }
        }

        document.getElementById('video').onclick = () => lookup('video', {url: ref.value});
        document.getElementById('playlist').onclick = () => lookup('playlist', {url: ref.value});
        document.getElementById('search').onclick = () => lookup('search', {q: ref.value});
    </script>
</body>
</html>
`
