package web

const indexHTML = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>ATM Gate</title>
<style>
  body { font-family: -apple-system, sans-serif; max-width: 720px; margin: 2rem auto; color: #222; }
  h1 { font-size: 1.4rem; }
  .row { margin: .75rem 0; }
  .stale { color: #999; }
  .error { color: #b00020; }
  button { margin-right: .5rem; }
  input { margin-right: .5rem; }
  table { border-collapse: collapse; width: 100%; }
  td, th { border-bottom: 1px solid #ddd; padding: .3rem .5rem; text-align: left; font-size: .9rem; }
</style>
</head>
<body>
<h1>ATM Gate</h1>
<div class="row" id="account">not connected</div>
<div class="row">Balance: <span id="balance">–</span></div>
<div class="row">Price: <span id="price">–</span></div>
<div class="row error" id="error"></div>
<div class="row">
  <button onclick="post('/api/connect')">Connect wallet</button>
  <button onclick="post('/api/disconnect')">Disconnect</button>
</div>
<div class="row">
  <input id="amount" placeholder="amount">
  <button id="btn-deposit" onclick="send('deposit')">Deposit</button>
  <button id="btn-withdraw" onclick="send('withdraw')">Withdraw</button>
</div>
<div class="row">
  <input id="recipient" placeholder="recipient address">
  <button id="btn-transfer" onclick="send('transfer')">Transfer</button>
</div>
<h2>Activity</h2>
<table><thead><tr><th>Action</th><th>Amount</th><th>Recipient</th><th>When</th></tr></thead>
<tbody id="activity"></tbody></table>
<script>
function post(path, body) {
  return fetch(path, {method: 'POST', headers: {'Content-Type': 'application/json'},
    body: JSON.stringify(body || {})});
}
function send(kind) {
  post('/api/' + kind, {
    amount: document.getElementById('amount').value,
    recipient: document.getElementById('recipient').value,
  });
}
const state = new EventSource('/state/stream');
state.addEventListener('state', function (e) {
  const s = JSON.parse(e.data);
  document.getElementById('account').textContent = s.connected ? s.account : 'not connected';
  document.getElementById('balance').textContent = s.balance || '–';
  const price = document.getElementById('price');
  price.textContent = s.quote ? s.quote.value : '–';
  price.className = s.quote_stale ? 'stale' : '';
  document.getElementById('error').textContent = s.last_error || '';
  for (const kind of ['deposit', 'withdraw', 'transfer']) {
    document.getElementById('btn-' + kind).disabled = !!(s.pending && s.pending[kind]);
  }
});
const activity = new EventSource('/activity/stream');
activity.addEventListener('activity', function (e) {
  const rec = JSON.parse(e.data);
  const row = document.createElement('tr');
  row.innerHTML = '<td>' + rec.action + '</td><td>' + rec.amount + '</td><td>' +
    (rec.recipient || '') + '</td><td>' + rec.ts + '</td>';
  document.getElementById('activity').prepend(row);
});
</script>
</body>
</html>`
